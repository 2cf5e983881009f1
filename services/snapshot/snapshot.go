// Package snapshot defines the immutable captured state of a subject's
// disclosure data at one point in time, and the stores that persist
// one snapshot per (subject, day).
package snapshot

import (
	"context"

	"hkexwatch/lib/table"
	"hkexwatch/lib/timezone"
)

// Snapshot is the state of one subject's disclosure records as
// observed at one fetch time. It is created at fetch time, persisted
// once, and never mutated afterwards.
type Snapshot struct {
	// Subject is the tracked stock code, e.g. "488".
	Subject string
	Date    timezone.Date
	// Main holds the top-level disclosure table.
	Main table.Table
	// Details holds the per-holder debenture detail tables, in the
	// order holders were first encountered in the fetched page.
	Details []HolderDetails
}

// HolderDetails is a detail table owned by one holder of the main
// table, keyed by the holder's name.
type HolderDetails struct {
	Holder string
	Table  table.Table
}

// Detail returns the detail table for a holder name, if one exists.
func (s *Snapshot) Detail(holder string) (table.Table, bool) {
	for _, d := range s.Details {
		if d.Holder == holder {
			return d.Table, true
		}
	}
	return table.Table{}, false
}

// Store persists at most one snapshot per (subject, day). A missing
// snapshot is reported as (nil, nil), absence is an expected state on
// the first run for a subject, not an error.
type Store interface {
	Get(ctx context.Context, subject string, date timezone.Date) (*Snapshot, error)
	// Latest returns the most recent snapshot strictly before the
	// given date, or nil when the subject has no prior history.
	Latest(ctx context.Context, subject string, before timezone.Date) (*Snapshot, error)
	Put(ctx context.Context, snap *Snapshot) error
}
