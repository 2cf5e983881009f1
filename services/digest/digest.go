// Package digest fetches optional extras for the daily email, a news
// headline roundup and a weather forecast. Digest failures never block
// the holdings report, callers append whatever sections succeeded.
package digest

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/digest")

// Section is one appendable block of the daily email.
type Section struct {
	Title string
	HTML  string
	Text  string
}

// Source produces one section. News and weather both satisfy this, the
// monitor iterates whatever sources the config enabled.
type Source interface {
	Section(ctx context.Context) (Section, error)
}

// Collect runs every source and returns the sections that succeeded
// along with the errors of those that did not.
func Collect(ctx context.Context, sources []Source) ([]Section, []error) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()

	var sections []Section
	var errs []error
	for _, src := range sources {
		section, err := src.Section(ctx)
		if err != nil {
			span.RecordError(err)
			errs = append(errs, err)
			continue
		}
		sections = append(sections, section)
	}
	return sections, errs
}

// AppendHTML attaches the sections to an already rendered HTML body.
func AppendHTML(body string, sections []Section) string {
	var b strings.Builder
	b.WriteString(body)
	for _, s := range sections {
		b.WriteString(fmt.Sprintf("<h3>%s</h3>\n", s.Title))
		b.WriteString(s.HTML)
	}
	return b.String()
}

// AppendText attaches the sections to an already rendered text body.
func AppendText(body string, sections []Section) string {
	var b strings.Builder
	b.WriteString(body)
	for _, s := range sections {
		b.WriteString(fmt.Sprintf("\n%s:\n", s.Title))
		b.WriteString(s.Text)
	}
	return b.String()
}
