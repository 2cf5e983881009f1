package commands

import (
	"fmt"

	"hkexwatch/lib/serviceutil"
	"hkexwatch/lib/timezone"
	"hkexwatch/services/diff"
	"hkexwatch/services/report"

	"github.com/spf13/cobra"
)

var diffDate *string

func init() {
	diffDate = diffCmd.Flags().String("date", "", "Day of the current snapshot (YYYY-MM-DD), defaults to today.")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff <stock code> [--date YYYY-MM-DD]",
	Short: "Diffs a stored snapshot against the one before it and prints the report.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		store, err := cfg.Store.Open()
		if err != nil {
			serviceutil.Fatal("failed to open store", err)
		}

		date := timezone.Today()
		if *diffDate != "" {
			date, err = timezone.ParseDate(*diffDate)
			if err != nil {
				serviceutil.Fatal("failed to parse date", err)
			}
		}

		current, err := store.Get(cmd.Context(), args[0], date)
		if err != nil {
			serviceutil.Fatal("failed to read snapshot", err)
		}
		if current == nil {
			serviceutil.Fatal("no snapshot", fmt.Errorf("nothing stored for %s on %s", args[0], date))
		}
		previous, err := store.Latest(cmd.Context(), args[0], date)
		if err != nil {
			serviceutil.Fatal("failed to read previous snapshot", err)
		}

		cs, err := diff.NewDiffer("Name").Diff(previous, current)
		if err != nil {
			serviceutil.Fatal("failed to diff", err)
		}

		company := args[0]
		for _, s := range cfg.Subjects {
			if s.Code == args[0] {
				company = s.Name
			}
		}

		rep := report.NewRenderer("Name").Render(report.Context{
			StockCode: args[0],
			Company:   company,
			AsOf:      date,
		}, cs)
		fmt.Print(rep.Text)
	},
}
