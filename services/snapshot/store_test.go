package snapshot

import (
	"context"
	"testing"
	"time"

	"hkexwatch/lib/table"
	"hkexwatch/lib/testutil"
	"hkexwatch/lib/timezone"
	"hkexwatch/services/snapshot/db"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testSnapshot(subject, date string) *Snapshot {
	d, err := timezone.ParseDate(date)
	if err != nil {
		panic(err)
	}

	main := table.NewTable("Name", "Capacity", "Nature of Interest")
	main.Append(table.FromPairs(
		"Name", "Chan Tai Man",
		"Capacity", "Director",
		"Nature of Interest", "Beneficial owner",
	))
	main.Append(table.FromPairs(
		"Name", "Wong Siu Ming",
		"Capacity", "Chief Executive",
		"Nature of Interest", "Family interest",
	))

	details := table.NewTable("Amount of Debentures", "Date of Relevant Event")
	details.Append(table.FromPairs(
		"Amount of Debentures", "HKD 5,000,000",
		"Date of Relevant Event", "02/01/2025",
	))

	return &Snapshot{
		Subject: subject,
		Date:    d,
		Main:    main,
		Details: []HolderDetails{{Holder: "Chan Tai Man", Table: details}},
	}
}

func runStoreTest(t *testing.T, store Store) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	today, err := timezone.ParseDate("2025-01-02")
	require.NoError(t, err)

	{
		// empty store: absence is a nil value, not an error
		got, err := store.Get(ctx, "488", today)
		require.NoError(t, err)
		require.Nil(t, got)

		got, err = store.Latest(ctx, "488", today)
		require.NoError(t, err)
		require.Nil(t, got)
	}

	snap := testSnapshot("488", "2025-01-02")
	require.NoError(t, store.Put(ctx, snap))

	{
		got, err := store.Get(ctx, "488", today)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, cmp.Diff(snap, got, cmp.AllowUnexported(table.Record{})))
	}
	{
		// same-day rewrite replaces, never duplicates
		require.NoError(t, store.Put(ctx, snap))
		got, err := store.Get(ctx, "488", today)
		require.NoError(t, err)
		require.Len(t, got.Details, 1)
		require.Equal(t, 2, got.Main.Len())
	}
	{
		// Latest skips today and other subjects
		older := testSnapshot("488", "2024-12-30")
		require.NoError(t, store.Put(ctx, older))
		other := testSnapshot("17", "2025-01-01")
		require.NoError(t, store.Put(ctx, other))

		got, err := store.Latest(ctx, "488", today)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, "2024-12-30", got.Date.String())

		got, err = store.Latest(ctx, "488", older.Date)
		require.NoError(t, err)
		require.Nil(t, got)
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreTest(t, store)
}

func TestSqliteStore(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/snapshot",
		DbSchema: db.Schema,
	})
	defer cleanup()
	runStoreTest(t, NewSqliteStore(setup.DB))
}
