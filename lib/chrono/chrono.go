// Package chrono schedules daily jobs in Hong Kong local time, which
// is what the disclosure site's day boundary follows.
package chrono

import (
	"log/slog"

	"hkexwatch/lib/timezone"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(timezone.Location),
			cron.WithLogger(slogCronLogger{}),
		),
	}
}

// AddJob registers fn under a standard cron expression, evaluated in
// Hong Kong time.
func (s *Scheduler) AddJob(schedule string, fn func()) error {
	_, err := s.cron.AddFunc(schedule, fn)
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"err", err}, keysAndValues...)...)
}
