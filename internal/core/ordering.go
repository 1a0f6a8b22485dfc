package core

import "sort"

// SortByDateAscending returns the records ordered by issued date. Records
// sharing a date keep their relative order. The input is left untouched.
func SortByDateAscending(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IssuedAt.Before(out[j].IssuedAt)
	})
	return out
}

// DateGroups maps issued dates to the records issued on them, remembering
// the order in which dates were first seen.
type DateGroups struct {
	keys   []string
	groups map[string][]RecordDetail
}

// GroupByDate buckets records by issued date in first-seen order.
func GroupByDate(details []RecordDetail) DateGroups {
	g := DateGroups{groups: make(map[string][]RecordDetail)}
	for _, d := range details {
		g.Add(d)
	}
	return g
}

// Add appends d to the bucket of its issued date.
func (g *DateGroups) Add(d RecordDetail) {
	if g.groups == nil {
		g.groups = make(map[string][]RecordDetail)
	}
	key := d.IssuedAt.String()
	if _, ok := g.groups[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.groups[key] = append(g.groups[key], d)
}

// Keys returns the date keys in first-seen order.
func (g DateGroups) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Get returns the records issued on key.
func (g DateGroups) Get(key string) []RecordDetail {
	return g.groups[key]
}

// Len returns the number of distinct dates.
func (g DateGroups) Len() int {
	return len(g.keys)
}

// Each calls fn for every date in first-seen order.
func (g DateGroups) Each(fn func(key string, details []RecordDetail)) {
	for _, k := range g.keys {
		fn(k, g.groups[k])
	}
}

// Records flattens the groups back into records, in key order.
func (g DateGroups) Records() []Record {
	var out []Record
	g.Each(func(_ string, details []RecordDetail) {
		for _, d := range details {
			out = append(out, d.Record)
		}
	})
	return out
}
