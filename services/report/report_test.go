package report

import (
	"strings"
	"testing"

	"hkexwatch/lib/table"
	"hkexwatch/lib/timezone"
	"hkexwatch/services/diff"

	"github.com/stretchr/testify/require"
)

func displayCtx(t *testing.T) Context {
	asOf, err := timezone.ParseDate("2025-01-02")
	require.NoError(t, err)
	return Context{
		StockCode: "488",
		Company:   "Lai Sun Development",
		AsOf:      asOf,
	}
}

var renderer = NewRenderer("Name")

func TestRenderInitialized(t *testing.T) {
	rep := renderer.Render(displayCtx(t), diff.ChangeSet{Initialized: true})

	require.Equal(t, "HKEX Debenture Holdings Update – 488 HK", rep.Subject)
	require.Contains(t, rep.HTML, "No previous data available")
	require.Contains(t, rep.Text, "No previous data available")
	require.NotContains(t, rep.HTML, "<table")
}

func TestRenderEmpty(t *testing.T) {
	rep := renderer.Render(displayCtx(t), diff.ChangeSet{})

	require.Contains(t, rep.HTML, "No change in debenture holdings")
	require.Contains(t, rep.Text, "No change in debenture holdings")
	// the two informational branches must not read the same
	init := renderer.Render(displayCtx(t), diff.ChangeSet{Initialized: true})
	require.NotEqual(t, init.HTML, rep.HTML)
}

func TestRenderChanges(t *testing.T) {
	cs := diff.ChangeSet{
		Added: []table.Record{
			table.FromPairs("Name", "Chan Tai Man", "Capacity", "Director", "Shares", "150"),
		},
		Removed: []table.Record{
			table.FromPairs("Name", "Chan Tai Man", "Capacity", "Director", "Shares", "100"),
		},
		Modified: []diff.HolderDelta{{
			Holder: "Chan Tai Man",
			Rows: []diff.DeltaRow{{
				Record:     table.FromPairs("Amount of Debentures", "HKD 2,000,000"),
				Provenance: diff.CurrentOnly,
			}},
		}},
	}

	rep := renderer.Render(displayCtx(t), cs)

	require.Contains(t, rep.HTML, "New entries")
	require.Contains(t, rep.HTML, "Removed entries")
	require.Contains(t, rep.HTML, "Changes for Chan Tai Man")
	require.Contains(t, rep.HTML, "<td>150</td>")
	require.Contains(t, rep.HTML, "<td>100</td>")
	require.Contains(t, rep.HTML, "today only")

	require.Contains(t, rep.Text, "New entries")
	require.Contains(t, rep.Text, "HKD 2,000,000")
}

func TestRenderSanitizesScrapedValues(t *testing.T) {
	cs := diff.ChangeSet{
		Added: []table.Record{
			table.FromPairs("Name", `<script>alert("x")</script>Chan`),
		},
	}

	rep := renderer.Render(displayCtx(t), cs)
	require.NotContains(t, rep.HTML, "<script>")
	require.Contains(t, rep.HTML, "Chan")
}

func TestRenameHints(t *testing.T) {
	cs := diff.ChangeSet{
		Added: []table.Record{
			table.FromPairs("Name", "Chan Tai Man", "Shares", "100"),
		},
		Removed: []table.Record{
			table.FromPairs("Name", "Chan Tai Mann", "Shares", "100"),
		},
	}

	hints := renameHints(cs, "Name")
	require.Len(t, hints, 1)
	require.Equal(t, "Chan Tai Mann", hints[0].Removed)
	require.Equal(t, "Chan Tai Man", hints[0].Added)
	require.GreaterOrEqual(t, hints[0].Similarity, renameThreshold)

	rep := renderer.Render(displayCtx(t), cs)
	require.Contains(t, rep.HTML, "may be the same person")
}

func TestRenameHintsIgnoreUnrelatedNames(t *testing.T) {
	cs := diff.ChangeSet{
		Added: []table.Record{
			table.FromPairs("Name", "Wong Siu Ming", "Shares", "50"),
		},
		Removed: []table.Record{
			table.FromPairs("Name", "Chan Tai Man", "Shares", "100"),
		},
	}
	require.Empty(t, renameHints(cs, "Name"))
}

func TestColumnsOfPreservesOrder(t *testing.T) {
	records := []table.Record{
		table.FromPairs("Name", "A", "Capacity", "Director"),
		table.FromPairs("Name", "B", "Capacity", "Director", "Number of Debentures", "5"),
	}
	require.Equal(
		t,
		[]string{"Name", "Capacity", "Number of Debentures"},
		columnsOf(records),
	)
}

func TestTextTableRendersAllColumns(t *testing.T) {
	out := textTable(
		[]string{"Name", "Shares"},
		[]table.Record{table.FromPairs("Name", "A", "Shares", "100")},
	)
	for _, want := range []string{"NAME", "SHARES", "A", "100"} {
		require.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
}
