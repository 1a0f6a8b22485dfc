// Package report lays out records for printing. A Dataset is either the
// flat records of one restaurant or the date groups of every restaurant;
// Layout turns it into a RenderPlan that renderers walk without inspecting
// the data shape again.
package report

import "scontrini/internal/core"

// ColumnLimit is the number of row groups that fit in one printed column.
const ColumnLimit = 15

// DefaultName is the report name used when a flat report has none.
const DefaultName = "Multiple"

// Kind tells the two dataset shapes apart.
type Kind int

const (
	KindFlat Kind = iota
	KindGrouped
)

func (k Kind) String() string {
	if k == KindGrouped {
		return "grouped"
	}
	return "flat"
}

// Dataset is the input of Layout. Build it with Flat or Grouped.
type Dataset struct {
	kind    Kind
	name    string
	records []core.Record
	groups  core.DateGroups
}

// Flat builds the dataset of a single-restaurant report.
func Flat(name string, records []core.Record) Dataset {
	return Dataset{kind: KindFlat, name: name, records: records}
}

// Grouped builds the dataset of a cross-restaurant report.
func Grouped(groups core.DateGroups) Dataset {
	return Dataset{kind: KindGrouped, groups: groups}
}

func (d Dataset) Kind() Kind { return d.kind }

// Rows returns the number of row groups the dataset renders as.
func (d Dataset) Rows() int {
	if d.kind == KindGrouped {
		return d.groups.Len()
	}
	return len(d.records)
}

// Line is one restaurant entry of a grouped row.
type Line struct {
	Label  string
	Amount core.Amount
}

// RowGroup is one printed row: a date and what was spent on it.
type RowGroup struct {
	Date core.Date
	// Amounts are set for flat rows, Lines for grouped rows.
	Amounts      []core.Amount
	Lines        []Line
	Subtotal     core.Amount
	ShowSubtotal bool
}

// RenderPlan is the laid out report.
type RenderPlan struct {
	Kind Kind
	// Name is the report name of a flat report.
	Name string
	// From and To are the first and last date keys of a grouped report.
	From, To string
	Columns  [][]RowGroup
	Total    core.Amount
}

// Layout splits the dataset into one column, or two when it has more
// than columnLimit rows. Grouped datasets are laid out in key order as
// given; they are expected to be chronological already.
func Layout(ds Dataset, columnLimit int) RenderPlan {
	if columnLimit <= 0 {
		columnLimit = ColumnLimit
	}

	plan := RenderPlan{Kind: ds.kind, Total: core.NewAmount(0)}
	var rows []RowGroup

	switch ds.kind {
	case KindGrouped:
		keys := ds.groups.Keys()
		if len(keys) > 0 {
			plan.From = keys[0]
			plan.To = keys[len(keys)-1]
		}
		ds.groups.Each(func(key string, details []core.RecordDetail) {
			row := RowGroup{Subtotal: core.NewAmount(0)}
			if len(details) > 0 {
				row.Date = details[0].IssuedAt
			} else if d, err := core.ParseDate(key); err == nil {
				row.Date = d
			}
			for _, d := range details {
				sub := d.Subtotal()
				row.Lines = append(row.Lines, Line{Label: d.RestaurantName, Amount: sub})
				row.Subtotal = row.Subtotal.Add(sub)
			}
			plan.Total = plan.Total.Add(row.Subtotal)
			rows = append(rows, row)
		})
	default:
		plan.Name = ds.name
		if plan.Name == "" {
			plan.Name = DefaultName
		}
		for _, rec := range ds.records {
			sub := rec.Subtotal()
			rows = append(rows, RowGroup{
				Date:         rec.IssuedAt,
				Amounts:      rec.Amounts,
				Subtotal:     sub,
				ShowSubtotal: len(rec.Amounts) > 1,
			})
			plan.Total = plan.Total.Add(sub)
		}
	}

	if len(rows) > columnLimit {
		plan.Columns = [][]RowGroup{rows[:columnLimit], rows[columnLimit:]}
	} else {
		plan.Columns = [][]RowGroup{rows}
	}
	return plan
}

// Rows returns the row groups of every column in order.
func (p RenderPlan) Rows() []RowGroup {
	var out []RowGroup
	for _, col := range p.Columns {
		out = append(out, col...)
	}
	return out
}
