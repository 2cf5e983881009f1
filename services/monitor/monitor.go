// Package monitor runs the daily pipeline: fetch the current
// disclosures per subject, persist them, diff against the previous
// snapshot and mail out the result.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hkexwatch/lib/scrapers/hkexdi"
	"hkexwatch/lib/timezone"
	"hkexwatch/services/diff"
	"hkexwatch/services/digest"
	"hkexwatch/services/report"
	"hkexwatch/services/snapshot"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/monitor")

// Notifier is the delivery sink for rendered reports.
type Notifier interface {
	Notify(ctx context.Context, rep report.Report) error
}

// Subject is one company to watch.
type Subject struct {
	Code string `json:"code"`
	Sid  string `json:"sid"`
	Name string `json:"name"`
}

type Options struct {
	Store    snapshot.Store
	Fetcher  hkexdi.Fetcher
	Notifier Notifier
	Renderer report.Renderer
	Differ   diff.Differ
	// optional extra email sections, news and weather
	Digests []digest.Source
	// first day of the disclosure search window
	SearchStart timezone.Date
	Subjects    []Subject
}

type Service struct {
	opts Options
}

func NewService(opts Options) Service {
	return Service{opts: opts}
}

// RunOnce processes every subject for one day. A failing subject does
// not stop the others, the joined error reports all of them.
func (s Service) RunOnce(ctx context.Context, date timezone.Date) error {
	ctx, span := tracer.Start(ctx, "RunOnce")
	defer span.End()

	runId, err := random.String(8)
	if err != nil {
		runId = "unknown"
	}
	span.SetAttributes(attribute.String("run_id", runId))
	log := slog.With(slog.String("run_id", runId), slog.String("date", date.String()))

	log.InfoContext(ctx, "starting run", slog.Int("subjects", len(s.opts.Subjects)))

	sections, digestErrs := digest.Collect(ctx, s.opts.Digests)
	for _, err := range digestErrs {
		// a broken digest never blocks the holdings report
		log.WarnContext(ctx, "digest source failed", slog.String("err", err.Error()))
	}

	var errs []error
	for _, subject := range s.opts.Subjects {
		err := s.runSubject(ctx, log, subject, date, sections)
		if err != nil {
			span.RecordError(err)
			log.ErrorContext(ctx, "subject failed",
				slog.String("code", subject.Code),
				slog.String("err", err.Error()))
			errs = append(errs, fmt.Errorf("subject %s: %w", subject.Code, err))
		}
	}
	if len(errs) > 0 {
		span.SetStatus(codes.Error, "one or more subjects failed")
		return errors.Join(errs...)
	}

	log.InfoContext(ctx, "run complete")
	return nil
}

func (s Service) runSubject(
	ctx context.Context,
	log *slog.Logger,
	subject Subject,
	date timezone.Date,
	sections []digest.Section,
) error {
	ctx, span := tracer.Start(ctx, "runSubject")
	defer span.End()
	span.SetAttributes(attribute.String("code", subject.Code))

	current, err := s.opts.Fetcher.Fetch(ctx, hkexdi.Subject{
		StockCode: subject.Code,
		SID:       subject.Sid,
		CorpName:  subject.Name,
	}, hkexdi.DateRange{Start: s.opts.SearchStart, End: date})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return err
	}

	// Latest excludes the run date itself, so a same-day rerun still
	// diffs against yesterday
	previous, err := s.opts.Store.Latest(ctx, subject.Code, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "latest lookup failed")
		return err
	}

	err = s.opts.Store.Put(ctx, current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		return err
	}

	cs, err := s.opts.Differ.Diff(previous, current)
	if err != nil {
		// a malformed or reshaped previous snapshot must not silence
		// the alert, fall back to reporting a fresh start
		span.RecordError(err)
		log.WarnContext(ctx, "diff failed, treating as first run",
			slog.String("code", subject.Code),
			slog.String("err", err.Error()))
		cs = diff.ChangeSet{Initialized: true}
	}

	rep := s.opts.Renderer.Render(report.Context{
		StockCode: subject.Code,
		Company:   subject.Name,
		AsOf:      date,
	}, cs)
	rep.HTML = digest.AppendHTML(rep.HTML, sections)
	rep.Text = digest.AppendText(rep.Text, sections)

	err = s.opts.Notifier.Notify(ctx, rep)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "notify failed")
		return err
	}

	log.InfoContext(ctx, "subject processed",
		slog.String("code", subject.Code),
		slog.Bool("initialized", cs.Initialized),
		slog.Int("added", len(cs.Added)),
		slog.Int("removed", len(cs.Removed)),
		slog.Int("modified", len(cs.Modified)))
	return nil
}
