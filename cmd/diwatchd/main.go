package main

import (
	"context"
	"flag"
	"log/slog"

	"hkexwatch/lib/chrono"
	"hkexwatch/lib/configuration"
	"hkexwatch/lib/configutil"
	"hkexwatch/lib/serviceutil"
	"hkexwatch/lib/telemetry"
	"hkexwatch/lib/timezone"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialRun := flag.Bool("run", false, "Trigger a monitoring run immediately on start.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	t, err := telemetry.SetupFromEnv(ctx, "diwatchd")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[configuration.App]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	svc, err := cfg.Monitor()
	if err != nil {
		serviceutil.Fatal("init monitor", err)
	}

	run := func() {
		err := svc.RunOnce(ctx, timezone.Today())
		if err != nil {
			slog.ErrorContext(ctx, "monitoring run failed", "err", err)
		}
	}

	if *initialRun {
		run()
	}

	schedule := cfg.Schedule
	if schedule == "" {
		// after the site's daily filing cutoff
		schedule = "0 19 * * *"
	}

	scheduler := chrono.NewScheduler()
	err = scheduler.AddJob(schedule, run)
	if err != nil {
		serviceutil.Fatal("schedule monitoring run", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	slog.InfoContext(ctx, "daemon started", "schedule", schedule)
	<-ctx.Done()
}
