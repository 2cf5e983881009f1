// Package diff computes what changed between two snapshots of a
// subject's disclosure records. It is a pure computation: no I/O, no
// shared state, safe to run concurrently for independent subjects.
package diff

import (
	"errors"
	"fmt"

	"hkexwatch/lib/table"
	"hkexwatch/services/snapshot"
)

var (
	// ErrMalformedSnapshot marks a snapshot missing a field required
	// for keying, e.g. a detail table whose holder has no matching
	// main-table record.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	// ErrSchemaMismatch marks two main tables that do not share the
	// same column set. The differ never migrates schemas.
	ErrSchemaMismatch = errors.New("snapshot schema mismatch")
)

// Provenance tags which side of the comparison a delta row came from.
type Provenance int

const (
	CurrentOnly Provenance = iota
	PreviousOnly
)

func (p Provenance) String() string {
	switch p {
	case CurrentOnly:
		return "current"
	case PreviousOnly:
		return "previous"
	}
	return "unknown"
}

// DeltaRow is one detail-table row present on only one side of the
// comparison.
type DeltaRow struct {
	Record     table.Record
	Provenance Provenance
}

// HolderDelta collects the delta rows of one holder's detail table.
type HolderDelta struct {
	Holder string
	Rows   []DeltaRow
}

// ChangeSet describes the difference between two snapshots. A record
// never appears in more than one of Added/Removed/Modified for the
// same comparison.
type ChangeSet struct {
	// Initialized is set when there was no previous snapshot to
	// compare against. It is distinct from an empty change set and
	// renderers must treat the two differently.
	Initialized bool
	// Added holds main-table records present only in the current
	// snapshot, in current-snapshot row order.
	Added []table.Record
	// Removed holds main-table records present only in the previous
	// snapshot, in previous-snapshot row order.
	Removed []table.Record
	// Modified holds detail-table deltas for holders present in both
	// snapshots, ordered as first encountered in the current snapshot.
	Modified []HolderDelta
}

// Empty reports a comparison that found no changes. An initialized
// change set is never empty in this sense, it is a different state.
func (c ChangeSet) Empty() bool {
	return !c.Initialized && len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Differ compares snapshots. The holder field names the main-table
// column that identifies the owner of a detail table.
type Differ struct {
	holderField string
}

func NewDiffer(holderField string) Differ {
	return Differ{holderField: holderField}
}

// Diff compares the previous snapshot against the current one. A nil
// previous snapshot means this is the first observation of the subject
// and yields the initialized sentinel.
//
// Main-table records are matched by full-row equality, a record whose
// value changed shows up as removed (old row) plus added (new row).
// Reconciliation of "same holder, changed value" happens only at the
// detail-table level.
func (d Differ) Diff(previous, current *snapshot.Snapshot) (ChangeSet, error) {
	if current == nil {
		return ChangeSet{}, fmt.Errorf("%w: current snapshot is required", ErrMalformedSnapshot)
	}
	// first observation of the subject: nothing is joined against, so
	// keying fields are not required yet
	if previous == nil {
		return ChangeSet{Initialized: true}, nil
	}
	if err := d.validate(current); err != nil {
		return ChangeSet{}, err
	}
	if err := d.validate(previous); err != nil {
		return ChangeSet{}, err
	}

	if !previous.Main.SameColumns(current.Main) {
		return ChangeSet{}, fmt.Errorf(
			"%w: previous columns %v, current columns %v",
			ErrSchemaMismatch, previous.Main.Columns, current.Main.Columns,
		)
	}

	var out ChangeSet
	out.Added = subtract(current.Main.Records, previous.Main.Records)
	out.Removed = subtract(previous.Main.Records, current.Main.Records)
	out.Modified = diffDetails(previous, current)
	return out, nil
}

// validate checks that every detail table is anchored to a main-table
// record through the holder field.
func (d Differ) validate(snap *snapshot.Snapshot) error {
	for _, detail := range snap.Details {
		found := false
		for _, rec := range snap.Main.Records {
			name, ok := rec.Get(d.holderField)
			if ok && name == detail.Holder {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf(
				"%w: detail table for %q has no main record with %q set to that holder (%s, %s)",
				ErrMalformedSnapshot, detail.Holder, d.holderField, snap.Subject, snap.Date,
			)
		}
	}
	return nil
}

// subtract returns the records of a that have no identical record in
// b, preserving a's row order.
func subtract(a, b []table.Record) []table.Record {
	inB := make(map[string]struct{}, len(b))
	for _, r := range b {
		inB[r.Key()] = struct{}{}
	}

	var out []table.Record
	for _, r := range a {
		if _, ok := inB[r.Key()]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// diffDetails outer-joins the detail tables of holders present on both
// sides. A holder that is new in the current snapshot is already
// covered by Added and deliberately not reported as modified.
func diffDetails(previous, current *snapshot.Snapshot) []HolderDelta {
	var out []HolderDelta
	for _, cur := range current.Details {
		prev, ok := previous.Detail(cur.Holder)
		if !ok {
			continue
		}

		var rows []DeltaRow
		for _, r := range subtract(cur.Table.Records, prev.Records) {
			rows = append(rows, DeltaRow{Record: r, Provenance: CurrentOnly})
		}
		for _, r := range subtract(prev.Records, cur.Table.Records) {
			rows = append(rows, DeltaRow{Record: r, Provenance: PreviousOnly})
		}
		if len(rows) == 0 {
			continue
		}
		out = append(out, HolderDelta{Holder: cur.Holder, Rows: rows})
	}
	return out
}
