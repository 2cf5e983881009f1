package commands

import (
	"hkexwatch/lib/serviceutil"
	"hkexwatch/lib/timezone"

	"github.com/spf13/cobra"
)

var runDate *string

func init() {
	runDate = runCmd.Flags().String("date", "", "Run as of this day (YYYY-MM-DD) instead of today.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--date YYYY-MM-DD]",
	Short: "Fetches, stores, diffs and emails once for every configured subject.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		svc, err := cfg.Monitor()
		if err != nil {
			serviceutil.Fatal("failed to init monitor", err)
		}

		date := timezone.Today()
		if *runDate != "" {
			date, err = timezone.ParseDate(*runDate)
			if err != nil {
				serviceutil.Fatal("failed to parse date", err)
			}
		}

		err = svc.RunOnce(cmd.Context(), date)
		if err != nil {
			serviceutil.Fatal("monitoring run failed", err)
		}
	},
}
