package diff

import (
	"testing"

	"hkexwatch/lib/table"
	"hkexwatch/lib/timezone"
	"hkexwatch/services/snapshot"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func day(s string) timezone.Date {
	d, err := timezone.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mainRow(name, capacity, shares string) table.Record {
	return table.FromPairs("Name", name, "Capacity", capacity, "Shares", shares)
}

func snap(date string, rows ...table.Record) *snapshot.Snapshot {
	main := table.NewTable("Name", "Capacity", "Shares")
	for _, r := range rows {
		main.Append(r)
	}
	return &snapshot.Snapshot{
		Subject: "488",
		Date:    day(date),
		Main:    main,
	}
}

func withDetails(s *snapshot.Snapshot, holder string, rows ...table.Record) *snapshot.Snapshot {
	t := table.NewTable("Amount of Debentures", "Date of Relevant Event")
	for _, r := range rows {
		t.Append(r)
	}
	s.Details = append(s.Details, snapshot.HolderDetails{Holder: holder, Table: t})
	return s
}

func detailRow(amount, date string) table.Record {
	return table.FromPairs("Amount of Debentures", amount, "Date of Relevant Event", date)
}

var differ = NewDiffer("Name")

func TestNoPreviousYieldsInitialized(t *testing.T) {
	cases := []*snapshot.Snapshot{
		snap("2025-01-02"),
		snap("2025-01-02", mainRow("A", "Director", "100")),
		withDetails(snap("2025-01-02", mainRow("A", "Director", "100")),
			"A", detailRow("HKD 1,000,000", "01/01/2025")),
		// even a snapshot with a dangling detail table: nothing is
		// joined on a first run
		withDetails(snap("2025-01-02"), "Nobody", detailRow("HKD 1", "01/01/2025")),
	}
	for _, current := range cases {
		cs, err := differ.Diff(nil, current)
		require.NoError(t, err)
		require.True(t, cs.Initialized)
		require.False(t, cs.Empty())
		require.Empty(t, cs.Added)
		require.Empty(t, cs.Removed)
		require.Empty(t, cs.Modified)
	}
}

func TestNilCurrentRejected(t *testing.T) {
	_, err := differ.Diff(snap("2025-01-01"), nil)
	require.ErrorIs(t, err, ErrMalformedSnapshot)
}

func TestSelfDiffIsEmpty(t *testing.T) {
	s := withDetails(
		snap("2025-01-02",
			mainRow("A", "Director", "100"),
			mainRow("B", "Chief Executive", "50"),
		),
		"A", detailRow("HKD 1,000,000", "01/01/2025"),
	)

	cs, err := differ.Diff(s, s)
	require.NoError(t, err)
	require.True(t, cs.Empty())
	require.False(t, cs.Initialized)
}

func TestAddedRemovedSymmetry(t *testing.T) {
	a := snap("2025-01-01",
		mainRow("A", "Director", "100"),
		mainRow("B", "Director", "50"),
	)
	b := snap("2025-01-02",
		mainRow("A", "Director", "150"),
		mainRow("B", "Director", "50"),
		mainRow("C", "Chief Executive", "25"),
	)

	ab, err := differ.Diff(a, b)
	require.NoError(t, err)
	ba, err := differ.Diff(b, a)
	require.NoError(t, err)

	opts := cmp.AllowUnexported(table.Record{})
	require.Empty(t, cmp.Diff(ab.Added, ba.Removed, opts))
	require.Empty(t, cmp.Diff(ab.Removed, ba.Added, opts))
}

// full-row equality semantics: a changed share count surfaces as
// removed old row plus added new row, never as a modification
func TestChangedRowIsRemovedPlusAdded(t *testing.T) {
	previous := snap("2025-01-01", mainRow("A", "Director", "100"))
	current := snap("2025-01-02",
		mainRow("A", "Director", "150"),
		mainRow("B", "Director", "50"),
	)

	cs, err := differ.Diff(previous, current)
	require.NoError(t, err)

	require.Len(t, cs.Added, 2)
	requireField(t, cs.Added[0], "Name", "A")
	requireField(t, cs.Added[0], "Shares", "150")
	requireField(t, cs.Added[1], "Name", "B")

	require.Len(t, cs.Removed, 1)
	requireField(t, cs.Removed[0], "Name", "A")
	requireField(t, cs.Removed[0], "Shares", "100")

	require.Empty(t, cs.Modified)
}

func TestDetailTableOuterJoin(t *testing.T) {
	previous := withDetails(
		snap("2025-01-01", mainRow("X", "Director", "100")),
		"X", detailRow("HKD 1,000,000", "01/01/2025"),
	)
	current := withDetails(
		snap("2025-01-02", mainRow("X", "Director", "100")),
		"X",
		detailRow("HKD 1,000,000", "01/01/2025"),
		detailRow("HKD 2,000,000", "02/01/2025"),
	)

	cs, err := differ.Diff(previous, current)
	require.NoError(t, err)
	require.Empty(t, cs.Added)
	require.Empty(t, cs.Removed)
	require.Len(t, cs.Modified, 1)

	delta := cs.Modified[0]
	require.Equal(t, "X", delta.Holder)
	require.Len(t, delta.Rows, 1)
	require.Equal(t, CurrentOnly, delta.Rows[0].Provenance)
	requireField(t, delta.Rows[0].Record, "Amount of Debentures", "HKD 2,000,000")
}

func TestDetailTableBothSides(t *testing.T) {
	previous := withDetails(
		snap("2025-01-01", mainRow("X", "Director", "100")),
		"X", detailRow("HKD 1,000,000", "01/01/2025"),
	)
	current := withDetails(
		snap("2025-01-02", mainRow("X", "Director", "100")),
		"X", detailRow("HKD 3,000,000", "03/01/2025"),
	)

	cs, err := differ.Diff(previous, current)
	require.NoError(t, err)
	require.Len(t, cs.Modified, 1)
	require.Len(t, cs.Modified[0].Rows, 2)
	// current-only rows come first, then previous-only
	require.Equal(t, CurrentOnly, cs.Modified[0].Rows[0].Provenance)
	require.Equal(t, PreviousOnly, cs.Modified[0].Rows[1].Provenance)
}

// a holder that is brand-new in the current snapshot is visible
// through Added only, its detail table is not double-reported
func TestNewHolderDetailsNotModified(t *testing.T) {
	previous := snap("2025-01-01", mainRow("A", "Director", "100"))
	current := withDetails(
		snap("2025-01-02",
			mainRow("A", "Director", "100"),
			mainRow("B", "Director", "50"),
		),
		"B", detailRow("HKD 9,000,000", "02/01/2025"),
	)

	cs, err := differ.Diff(previous, current)
	require.NoError(t, err)
	require.Len(t, cs.Added, 1)
	requireField(t, cs.Added[0], "Name", "B")
	require.Empty(t, cs.Modified)
}

func TestUnchangedDetailTableNotReported(t *testing.T) {
	build := func(date string) *snapshot.Snapshot {
		return withDetails(
			snap(date, mainRow("X", "Director", "100")),
			"X", detailRow("HKD 1,000,000", "01/01/2025"),
		)
	}
	cs, err := differ.Diff(build("2025-01-01"), build("2025-01-02"))
	require.NoError(t, err)
	require.True(t, cs.Empty())
}

func TestSchemaMismatch(t *testing.T) {
	previous := &snapshot.Snapshot{
		Subject: "488",
		Date:    day("2025-01-01"),
		Main:    table.NewTable("Name", "Capacity"),
	}
	current := &snapshot.Snapshot{
		Subject: "488",
		Date:    day("2025-01-02"),
		Main:    table.NewTable("Name", "Capacity", "Extra"),
	}

	_, err := differ.Diff(previous, current)
	require.ErrorIs(t, err, ErrSchemaMismatch)

	// column order alone is not a mismatch
	current.Main = table.NewTable("Capacity", "Name")
	_, err = differ.Diff(previous, current)
	require.NoError(t, err)
}

func TestMalformedSnapshot(t *testing.T) {
	previous := snap("2025-01-01", mainRow("A", "Director", "100"))

	// detail table referencing a holder absent from the main table
	current := withDetails(
		snap("2025-01-02", mainRow("A", "Director", "100")),
		"Ghost", detailRow("HKD 1", "01/01/2025"),
	)
	_, err := differ.Diff(previous, current)
	require.ErrorIs(t, err, ErrMalformedSnapshot)

	// record lacking the holder-name field entirely
	badMain := table.NewTable("Capacity", "Shares")
	badMain.Append(table.FromPairs("Capacity", "Director", "Shares", "100"))
	bad := &snapshot.Snapshot{
		Subject: "488",
		Date:    day("2025-01-02"),
		Main:    badMain,
		Details: []snapshot.HolderDetails{{
			Holder: "A",
			Table:  table.NewTable("Amount of Debentures"),
		}},
	}
	_, err = differ.Diff(bad, bad)
	require.ErrorIs(t, err, ErrMalformedSnapshot)
}

func TestBucketsAreDisjoint(t *testing.T) {
	previous := snap("2025-01-01", mainRow("A", "Director", "100"))
	current := snap("2025-01-02",
		mainRow("A", "Director", "150"),
		mainRow("B", "Director", "50"),
	)

	cs, err := differ.Diff(previous, current)
	require.NoError(t, err)

	require.Len(t, cs.Added, 2)
	require.Len(t, cs.Removed, 1)
	require.Empty(t, cs.Modified)

	// no record key appears in more than one bucket
	seen := map[string]int{}
	for _, r := range cs.Added {
		seen[r.Key()]++
	}
	for _, r := range cs.Removed {
		seen[r.Key()]++
	}
	for _, count := range seen {
		require.Equal(t, 1, count)
	}
}

func requireField(t *testing.T, r table.Record, field, want string) {
	t.Helper()
	got, ok := r.Get(field)
	require.True(t, ok, "field %q missing", field)
	require.Equal(t, want, got)
}
