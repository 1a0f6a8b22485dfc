package cache

import "testing"

func TestKeyNormalisesIntegers(t *testing.T) {
	if NewKey("records", 3).String() != NewKey("records", int64(3)).String() {
		t.Fatal("int and int64 segments should address the same entry")
	}
	if got := RecordsKey(3).String(); got != `["records",3]` {
		t.Fatalf("RecordsKey(3) = %s", got)
	}
}

func TestKeyNormalisesEveryIntegerKind(t *testing.T) {
	want := RecordsKey(3)
	for _, seg := range []any{int8(3), int16(3), int32(3), uint(3), uint8(3), uint16(3), uint32(3), uint64(3)} {
		k := NewKey(FamilyRecords, seg)
		if k.String() != want.String() {
			t.Fatalf("%T segment: key %s, want %s", seg, k, want)
		}
		if !k.HasPrefix(want) || !want.HasPrefix(k) {
			t.Fatalf("%T segment: %s and %s should match as prefixes", seg, k, want)
		}
	}
}

func TestKeyHasPrefix(t *testing.T) {
	cases := []struct {
		key, prefix Key
		want        bool
	}{
		{RecordsKey(3), NewKey(FamilyRecords), true},
		{AllRecordsKey("u1", "2024-01-01", "2024-01-31"), NewKey(FamilyRecords), true},
		{RestaurantsKey("u1"), NewKey(FamilyRecords), false},
		{RestaurantKey(1), RestaurantsKey("u1"), false},
		{RecordsKey(3), RecordsKey(3), true},
		{RecordsKey(3), FilteredRecordsKey(3, "2024-01-01", "2024-01-02"), false},
		{FilteredRecordsKey(3, "2024-01-01", "2024-01-02"), RecordsKey(3), true},
	}
	for _, tc := range cases {
		if got := tc.key.HasPrefix(tc.prefix); got != tc.want {
			t.Fatalf("%s.HasPrefix(%s) = %v, want %v", tc.key, tc.prefix, got, tc.want)
		}
	}
}

func TestFilteredRecordsKeyWithoutRange(t *testing.T) {
	if FilteredRecordsKey(4, "", "").String() != RecordsKey(4).String() {
		t.Fatal("an empty range should address the unfiltered records")
	}
}
