package core

import (
	"reflect"
	"testing"
)

func amountStrings(r Record) []string {
	out := make([]string, len(r.Amounts))
	for i, a := range r.Amounts {
		out[i] = a.String()
	}
	return out
}

func TestResolveAddMergesSameDay(t *testing.T) {
	existing := []Record{rec(7, "2024-01-01", 5)}
	res := ResolveAdd(existing, rec(0, "2024-01-01", 3))

	if !res.Merged {
		t.Fatalf("expected merge")
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	if got := amountStrings(res.Records[0]); !reflect.DeepEqual(got, []string{"5", "3"}) {
		t.Fatalf("amounts = %v, want [5 3]", got)
	}
	if res.Records[0].ID != 7 || res.Index != 0 {
		t.Fatalf("merged record lost its identity: %+v index=%d", res.Records[0], res.Index)
	}
	if len(existing[0].Amounts) != 1 {
		t.Fatalf("existing records were modified")
	}
}

func TestResolveAddKeepsSubmittedOrder(t *testing.T) {
	existing := []Record{rec(1, "2024-01-01", 1, 2), rec(2, "2024-01-05", 9)}
	res := ResolveAdd(existing, rec(0, "2024-01-01", 3, 4))
	if got := amountStrings(res.Records[0]); !reflect.DeepEqual(got, []string{"1", "2", "3", "4"}) {
		t.Fatalf("amounts = %v", got)
	}
	if ids(res.Records)[1] != 2 {
		t.Fatalf("other records moved: %v", ids(res.Records))
	}
}

func TestResolveAddInsertsSorted(t *testing.T) {
	existing := []Record{rec(1, "2024-01-02", 10)}
	res := ResolveAdd(existing, rec(0, "2024-01-01", 4))

	if res.Merged {
		t.Fatalf("expected insert")
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if res.Records[0].IssuedAt.String() != "2024-01-01" || res.Records[1].IssuedAt.String() != "2024-01-02" {
		t.Fatalf("not sorted: %s, %s", res.Records[0].IssuedAt, res.Records[1].IssuedAt)
	}
	if !IsPlaceholderID(res.Records[0].ID) || res.Index != 0 {
		t.Fatalf("inserted record should carry a placeholder id at index 0, got %+v index=%d", res.Records[0], res.Index)
	}
}

func TestResolveAddIntoEmpty(t *testing.T) {
	res := ResolveAdd(nil, rec(11, "2024-06-01", 1))
	if res.Merged || len(res.Records) != 1 || res.Records[0].ID != 11 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
