package report

// Document is a RenderPlan with every value formatted, ready for a
// renderer to place on a page, a sheet or a terminal.
type Document struct {
	Header  string
	Columns [][]Block
	Footer  string
	Total   string
}

// Block is one formatted row group.
type Block struct {
	Date         string
	Amounts      []string
	Lines        []TextLine
	Subtotal     string
	ShowSubtotal bool
}

// TextLine is one formatted restaurant entry of a grouped row.
type TextLine struct {
	Label  string
	Amount string
}

// Title returns the header text of the plan: the report name, or the
// span of dates for grouped reports.
func (p RenderPlan) Title(f Formatter) string {
	if p.Kind == KindGrouped {
		return f.DateKey(p.From) + " - " + f.DateKey(p.To)
	}
	return p.Name
}

// Render formats the plan.
func Render(p RenderPlan, f Formatter) Document {
	doc := Document{
		Header: "Receipt: " + p.Title(f),
		Total:  f.Amount(p.Total),
	}
	doc.Footer = "Total: " + doc.Total

	for _, col := range p.Columns {
		blocks := make([]Block, 0, len(col))
		for _, row := range col {
			b := Block{
				Date:         f.Date(row.Date),
				Subtotal:     f.Amount(row.Subtotal),
				ShowSubtotal: row.ShowSubtotal,
			}
			for _, a := range row.Amounts {
				b.Amounts = append(b.Amounts, f.Amount(a))
			}
			for _, l := range row.Lines {
				b.Lines = append(b.Lines, TextLine{Label: l.Label, Amount: f.Amount(l.Amount)})
			}
			blocks = append(blocks, b)
		}
		doc.Columns = append(doc.Columns, blocks)
	}
	return doc
}

// Build lays out and formats a dataset in one step.
func Build(ds Dataset, f Formatter) Document {
	return Render(Layout(ds, ColumnLimit), f)
}
