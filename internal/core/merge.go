package core

// MergeResult is the outcome of ResolveAdd.
type MergeResult struct {
	Records []Record
	// Merged is true when the amounts were appended to an existing record.
	Merged bool
	// Index is the position of the merged or inserted record in Records.
	Index int
}

// ResolveAdd folds an incoming submission into a collection of records of
// one restaurant. When a record with the same issued date exists, the new
// amounts are appended after the existing ones. Otherwise the incoming
// record is inserted and the collection re-sorted by date.
//
// The same function backs both the local optimistic patch and the store
// update-or-insert, so both sides agree on the result. Amounts are assumed
// non-empty; callers check form completeness first. Neither argument is
// modified.
func ResolveAdd(existing []Record, incoming Record) MergeResult {
	for i, rec := range existing {
		if !rec.IssuedAt.Equal(incoming.IssuedAt) {
			continue
		}
		out := make([]Record, len(existing))
		copy(out, existing)
		merged := rec.Clone()
		merged.Amounts = append(merged.Amounts, incoming.Amounts...)
		out[i] = merged
		return MergeResult{Records: out, Merged: true, Index: i}
	}

	added := incoming.Clone()
	if added.ID == 0 {
		added.ID = NewPlaceholderID()
	}
	out := make([]Record, 0, len(existing)+1)
	out = append(out, existing...)
	out = append(out, added)
	out = SortByDateAscending(out)

	idx := 0
	for i, rec := range out {
		if rec.ID == added.ID {
			idx = i
			break
		}
	}
	return MergeResult{Records: out, Merged: false, Index: idx}
}
