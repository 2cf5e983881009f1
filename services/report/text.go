package report

import (
	"fmt"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"hkexwatch/lib/table"
	"hkexwatch/services/diff"
)

func (r Renderer) changesText(cs diff.ChangeSet) string {
	var b strings.Builder
	b.WriteString("Update detected in debenture holdings.\n")

	if len(cs.Added) > 0 {
		b.WriteString("\nNew entries:\n")
		b.WriteString(textTable(columnsOf(cs.Added), cs.Added))
	}
	if len(cs.Removed) > 0 {
		b.WriteString("\nRemoved entries:\n")
		b.WriteString(textTable(columnsOf(cs.Removed), cs.Removed))
	}
	for _, delta := range cs.Modified {
		b.WriteString(fmt.Sprintf("\nChanges for %s:\n", delta.Holder))
		records := make([]table.Record, len(delta.Rows))
		for i, row := range delta.Rows {
			rec := row.Record.Clone()
			rec.Set("Source", sourceLabel(row.Provenance))
			records[i] = rec
		}
		b.WriteString(textTable(columnsOf(records), records))
	}

	for _, hint := range renameHints(cs, r.holderField) {
		b.WriteString(fmt.Sprintf(
			"\nNote: removed holder %q and new holder %q may be the same person (similarity %.2f).\n",
			hint.Removed, hint.Added, hint.Similarity,
		))
	}

	return b.String()
}

func textTable(columns []string, records []table.Record) string {
	w := prettytable.NewWriter()
	w.SetStyle(prettytable.StyleRounded)

	header := make(prettytable.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	w.AppendHeader(header)

	for _, rec := range records {
		row := make(prettytable.Row, len(columns))
		for i, c := range columns {
			v, _ := rec.Get(c)
			row[i] = v
		}
		w.AppendRow(row)
	}

	return w.Render() + "\n"
}
