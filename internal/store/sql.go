package store

import (
	"strconv"
	"strings"

	"scontrini/internal/core"
)

// SQLValue converts a filter value to a driver argument. Dates become
// their YYYY-MM-DD form.
func SQLValue(v any) any {
	if d, ok := v.(core.Date); ok {
		return d.String()
	}
	return v
}

// WhereSQL renders the WHERE clause of q with "?" placeholders. Fields
// are qualified with prefix, e.g. "r." for joins. The query must have
// been validated.
func (q Query) WhereSQL(prefix string) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(prefix + string(f.Field) + " " + f.Op.SQL() + " ?")
		args = append(args, SQLValue(f.Value))
	}
	return b.String(), args
}

// SQL renders the WHERE, ORDER BY and LIMIT clauses of q. Rows are
// ordered by id after the query order.
func (q Query) SQL(prefix string) (string, []any) {
	where, args := q.WhereSQL(prefix)
	var b strings.Builder
	b.WriteString(where)
	if q.Order != nil {
		b.WriteString(" ORDER BY " + prefix + string(q.Order.Field))
		if q.Order.Ascending {
			b.WriteString(" ASC")
		} else {
			b.WriteString(" DESC")
		}
		b.WriteString(", " + prefix + "id ASC")
	} else {
		b.WriteString(" ORDER BY " + prefix + "id ASC")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	return b.String(), args
}
