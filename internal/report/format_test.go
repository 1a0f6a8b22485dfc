package report

import (
	"testing"

	"scontrini/internal/core"
)

func TestFormatterAmount(t *testing.T) {
	cases := []struct {
		locale, in, want string
	}{
		{"en-US", "35", "35"},
		{"en-US", "1234.5", "1,234.5"},
		{"it-IT", "1234.5", "1.234,5"},
		{"bogus locale", "12", "12"},
		{"en-US", "12345678901234.567", "12,345,678,901,234.567"},
		{"it-IT", "98765432109876.125", "98.765.432.109.876,125"},
		{"en-US", "-1234.5", "-1,234.5"},
		{"en-US", "0.0005", "0.001"},
		{"en-US", "2.9999", "3"},
		{"it-IT", "0.05", "0,05"},
	}
	for _, tc := range cases {
		a, err := core.ParseAmount(tc.in)
		if err != nil {
			t.Fatal(err)
		}
		if got := NewFormatter(tc.locale).Amount(a); got != tc.want {
			t.Fatalf("%s Amount(%s) = %q, want %q", tc.locale, tc.in, got, tc.want)
		}
	}
}

func TestFormatterDate(t *testing.T) {
	d := core.MustParseDate("2024-01-02")
	if got := NewFormatter("en-US").Date(d); got != "1/2/2024" {
		t.Fatalf("en-US date = %q", got)
	}
	if got := NewFormatter("it-IT").Date(d); got != "02/01/2024" {
		t.Fatalf("it-IT date = %q", got)
	}
	if got := NewFormatter("en-US").DateKey("not a date"); got != "not a date" {
		t.Fatalf("DateKey fallback = %q", got)
	}
}

func TestRenderHeaders(t *testing.T) {
	f := NewFormatter("en-US")
	flat := Build(Flat("Da Mario", []core.Record{rec("2024-01-01", 10, 20), rec("2024-01-02", 5)}), f)
	if flat.Header != "Receipt: Da Mario" || flat.Footer != "Total: 35" {
		t.Fatalf("flat header/footer = %q / %q", flat.Header, flat.Footer)
	}
	if got := flat.Columns[0][0].Amounts; len(got) != 2 || got[1] != "20" {
		t.Fatalf("amounts = %v", got)
	}

	groups := core.GroupByDate([]core.RecordDetail{
		{Record: rec("2024-01-01", 1), RestaurantName: "A"},
		{Record: rec("2024-01-31", 2), RestaurantName: "B"},
	})
	grouped := Build(Grouped(groups), f)
	if grouped.Header != "Receipt: 1/1/2024 - 1/31/2024" {
		t.Fatalf("grouped header = %q", grouped.Header)
	}
	if l := grouped.Columns[0][1].Lines[0]; l.Label != "B" || l.Amount != "2" {
		t.Fatalf("line = %+v", l)
	}
}
