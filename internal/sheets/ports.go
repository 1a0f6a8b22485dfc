// Package sheets defines the outbound ports of the spreadsheet mirror.
package sheets

import (
	"context"

	"scontrini/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordMirror keeps an external copy of the records, one row each.
	RecordMirror interface {
		// UpsertRecord writes the row of d, replacing an existing row with
		// the same record id.
		UpsertRecord(ctx context.Context, d core.RecordDetail) error
		// DeleteRecord removes the row of id. Missing rows are not an error.
		DeleteRecord(ctx context.Context, id int64) error
	}

	// MirrorLister lists the record ids currently mirrored, used by full
	// resyncs to drop rows whose records no longer exist.
	MirrorLister interface {
		ListRecordIDs(ctx context.Context) ([]int64, error)
	}

	Mirror interface {
		RecordMirror
		MirrorLister
	}
)
