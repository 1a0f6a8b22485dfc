// Package xlsx writes report plans as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"scontrini/internal/core"
	"scontrini/internal/report"
)

// SheetName is the name of the single sheet of the workbook.
const SheetName = "Receipt"

// Each plan column takes three sheet columns: date, label, amount.
const columnsPerBlock = 3

// Build creates a workbook for the plan. The caller closes it.
func Build(plan report.RenderPlan, f report.Formatter) (*excelize.File, error) {
	wb := excelize.NewFile()
	index, err := wb.NewSheet(SheetName)
	if err != nil {
		wb.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	wb.SetActiveSheet(index)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		wb.Close()
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}

	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		wb.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	w := &sheetWriter{wb: wb, bold: bold}
	w.set(1, 1, "Receipt: "+plan.Title(f), true)

	last := 2
	for c, col := range plan.Columns {
		x := c*columnsPerBlock + 1
		y := 3
		for _, row := range col {
			w.set(x, y, f.Date(row.Date), false)
			switch {
			case len(row.Lines) > 0:
				for _, l := range row.Lines {
					w.set(x+1, y, l.Label, false)
					w.set(x+2, y, number(l.Amount), false)
					y++
				}
			default:
				for _, a := range row.Amounts {
					w.set(x+2, y, number(a), false)
					y++
				}
				if row.ShowSubtotal {
					w.set(x+1, y, "Subtotal", true)
					w.set(x+2, y, number(row.Subtotal), true)
					y++
				}
			}
			if len(row.Lines) == 0 && len(row.Amounts) == 0 {
				y++
			}
		}
		if y > last {
			last = y
		}
		w.width(x, 12)
		w.width(x+1, 24)
		w.width(x+2, 12)
	}

	totalCol := len(plan.Columns)*columnsPerBlock - 1
	if totalCol < 2 {
		totalCol = 2
	}
	w.set(totalCol, last+1, "Total:", true)
	w.set(totalCol+1, last+1, number(plan.Total), true)

	if w.err != nil {
		wb.Close()
		return nil, w.err
	}
	return wb, nil
}

// Write streams the workbook of the plan to out.
func Write(out io.Writer, plan report.RenderPlan, f report.Formatter) error {
	wb, err := Build(plan, f)
	if err != nil {
		return err
	}
	defer wb.Close()
	if err := wb.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func number(a core.Amount) float64 {
	return a.InexactFloat64()
}

// sheetWriter keeps the first error so cell writes can be chained.
type sheetWriter struct {
	wb   *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) set(col, row int, value any, bold bool) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.wb.SetCellValue(SheetName, cell, value); err != nil {
		w.err = fmt.Errorf("set %s: %w", cell, err)
		return
	}
	if bold {
		if err := w.wb.SetCellStyle(SheetName, cell, cell, w.bold); err != nil {
			w.err = fmt.Errorf("style %s: %w", cell, err)
		}
	}
}

func (w *sheetWriter) width(col int, width float64) {
	if w.err != nil {
		return
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		w.err = err
		return
	}
	if err := w.wb.SetColWidth(SheetName, name, name, width); err != nil {
		w.err = err
	}
}
