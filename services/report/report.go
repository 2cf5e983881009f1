// Package report turns a change set into the email body a human
// reads. It is presentation only: it never infers semantics beyond
// what the change set states.
package report

import (
	"fmt"
	"strings"

	"hkexwatch/lib/table"
	"hkexwatch/lib/timezone"
	"hkexwatch/services/diff"

	"github.com/microcosm-cc/bluemonday"
)

// Context carries the display information of one subject.
type Context struct {
	StockCode string
	Company   string
	AsOf      timezone.Date
}

// Report is a rendered change set, ready for the notification sink
// (HTML) and the CLI (plain text).
type Report struct {
	Subject string
	HTML    string
	Text    string
}

type Renderer struct {
	// main-table column identifying a holder, used for rename hints
	holderField string
	policy      *bluemonday.Policy
}

func NewRenderer(holderField string) Renderer {
	return Renderer{
		holderField: holderField,
		// cell values come off a third-party website, strip anything
		// that isn't plain text before it lands in an HTML email
		policy: bluemonday.StrictPolicy(),
	}
}

func (r Renderer) Render(ctx Context, cs diff.ChangeSet) Report {
	out := Report{
		Subject: fmt.Sprintf("HKEX Debenture Holdings Update – %s HK", ctx.StockCode),
	}

	switch {
	case cs.Initialized:
		out.HTML = r.wrapHTML(ctx, fmt.Sprintf(
			"<p>No previous data available for %s (%s HK). Initialized with today's snapshot.</p>",
			r.sanitize(ctx.Company), r.sanitize(ctx.StockCode),
		))
		out.Text = fmt.Sprintf(
			"No previous data available for %s (%s HK). Initialized with today's snapshot.\n",
			ctx.Company, ctx.StockCode,
		)
	case cs.Empty():
		out.HTML = r.wrapHTML(ctx,
			"<p>No change in debenture holdings since the previous snapshot.</p>")
		out.Text = "No change in debenture holdings since the previous snapshot.\n"
	default:
		out.HTML = r.wrapHTML(ctx, r.changesHTML(cs))
		out.Text = r.changesText(cs)
	}

	return out
}

func (r Renderer) sanitize(s string) string {
	return r.policy.Sanitize(s)
}

func (r Renderer) wrapHTML(ctx Context, body string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(
		"<h2>%s (%s HK) – %s</h2>\n",
		r.sanitize(ctx.Company), r.sanitize(ctx.StockCode), ctx.AsOf,
	))
	b.WriteString(body)
	return b.String()
}

func (r Renderer) changesHTML(cs diff.ChangeSet) string {
	var b strings.Builder
	b.WriteString("<p>Update detected in debenture holdings.</p>\n")

	if len(cs.Added) > 0 {
		b.WriteString("<h3>New entries</h3>\n")
		b.WriteString(r.htmlTable(columnsOf(cs.Added), cs.Added))
	}
	if len(cs.Removed) > 0 {
		b.WriteString("<h3>Removed entries</h3>\n")
		b.WriteString(r.htmlTable(columnsOf(cs.Removed), cs.Removed))
	}
	for _, delta := range cs.Modified {
		b.WriteString(fmt.Sprintf("<h3>Changes for %s</h3>\n", r.sanitize(delta.Holder)))
		b.WriteString(r.htmlDeltaTable(delta))
	}

	for _, hint := range renameHints(cs, r.holderField) {
		b.WriteString(fmt.Sprintf(
			"<p><i>Note: removed holder %q and new holder %q may be the same person (similarity %.2f).</i></p>\n",
			r.sanitize(hint.Removed), r.sanitize(hint.Added), hint.Similarity,
		))
	}

	return b.String()
}

func (r Renderer) htmlTable(columns []string, records []table.Record) string {
	var b strings.Builder
	b.WriteString("<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">\n<tr>")
	for _, c := range columns {
		b.WriteString("<th>")
		b.WriteString(r.sanitize(c))
		b.WriteString("</th>")
	}
	b.WriteString("</tr>\n")
	for _, rec := range records {
		b.WriteString("<tr>")
		for _, c := range columns {
			v, _ := rec.Get(c)
			b.WriteString("<td>")
			b.WriteString(r.sanitize(v))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	return b.String()
}

func (r Renderer) htmlDeltaTable(delta diff.HolderDelta) string {
	records := make([]table.Record, len(delta.Rows))
	for i, row := range delta.Rows {
		rec := row.Record.Clone()
		rec.Set("Source", sourceLabel(row.Provenance))
		records[i] = rec
	}
	return r.htmlTable(columnsOf(records), records)
}

func sourceLabel(p diff.Provenance) string {
	switch p {
	case diff.CurrentOnly:
		return "today only"
	case diff.PreviousOnly:
		return "previously only"
	}
	return p.String()
}

// columnsOf derives display columns from records, in order of first
// appearance. Needed because added/removed rows carry their own field
// sets, absent optional fields simply render empty.
func columnsOf(records []table.Record) []string {
	var columns []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		for _, f := range rec.Fields() {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			columns = append(columns, f)
		}
	}
	return columns
}
