package core

import (
	"reflect"
	"testing"
)

func rec(id int64, date string, amounts ...int64) Record {
	r := Record{ID: id, RestaurantID: 1, IssuedAt: MustParseDate(date)}
	for _, a := range amounts {
		r.Amounts = append(r.Amounts, NewAmount(a))
	}
	return r
}

func ids(records []Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSortByDateAscending(t *testing.T) {
	in := []Record{
		rec(1, "2024-03-01", 1),
		rec(2, "2024-01-01", 1),
		rec(3, "2024-02-01", 1),
		rec(4, "2024-01-01", 1),
	}
	got := SortByDateAscending(in)
	if want := []int64{2, 4, 3, 1}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("order = %v, want %v", ids(got), want)
	}
	if in[0].ID != 1 {
		t.Fatalf("input was reordered")
	}
}

func TestSortByDateAscendingIdempotent(t *testing.T) {
	in := []Record{
		rec(1, "2024-05-01", 1),
		rec(2, "2023-12-31", 2),
		rec(3, "2024-01-15", 3),
	}
	once := SortByDateAscending(in)
	twice := SortByDateAscending(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("sorting twice changed the result: %v vs %v", ids(once), ids(twice))
	}
}

func TestGroupByDatePreservesFirstSeenOrder(t *testing.T) {
	details := []RecordDetail{
		{Record: rec(1, "2024-01-02", 5), RestaurantName: "A"},
		{Record: rec(2, "2024-01-01", 3), RestaurantName: "B"},
		{Record: rec(3, "2024-01-02", 7), RestaurantName: "C"},
	}
	g := GroupByDate(details)
	if want := []string{"2024-01-02", "2024-01-01"}; !reflect.DeepEqual(g.Keys(), want) {
		t.Fatalf("keys = %v, want %v", g.Keys(), want)
	}
	if g.Len() != 2 {
		t.Fatalf("len = %d, want 2", g.Len())
	}
	first := g.Get("2024-01-02")
	if len(first) != 2 || first[0].RestaurantName != "A" || first[1].RestaurantName != "C" {
		t.Fatalf("unexpected bucket: %+v", first)
	}
	if got := ids(g.Records()); !reflect.DeepEqual(got, []int64{1, 3, 2}) {
		t.Fatalf("flattened ids = %v", got)
	}
}

func TestGroupByDateEmpty(t *testing.T) {
	g := GroupByDate(nil)
	if g.Len() != 0 || len(g.Keys()) != 0 {
		t.Fatalf("expected empty groups")
	}
	var zero DateGroups
	zero.Add(RecordDetail{Record: rec(1, "2024-01-01", 1)})
	if zero.Len() != 1 {
		t.Fatalf("zero value should accept Add")
	}
}
