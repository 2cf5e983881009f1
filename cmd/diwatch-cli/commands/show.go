package commands

import (
	"fmt"
	"os"

	"hkexwatch/lib/serviceutil"
	"hkexwatch/lib/table"
	"hkexwatch/lib/timezone"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showDate *string

func init() {
	showDate = showCmd.Flags().String("date", "", "Snapshot day (YYYY-MM-DD), defaults to today.")
	rootCmd.AddCommand(showCmd)
}

func printTable(t table.Table) {
	w := prettytable.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.SetStyle(prettytable.StyleRounded)

	header := make(prettytable.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	w.AppendHeader(header)

	for _, rec := range t.Records {
		row := make(prettytable.Row, len(t.Columns))
		for i, c := range t.Columns {
			v, _ := rec.Get(c)
			row[i] = v
		}
		w.AppendRow(row)
	}
	w.Render()
}

var showCmd = &cobra.Command{
	Use:   "show <stock code> [--date YYYY-MM-DD]",
	Short: "Prints a stored snapshot.",
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
		if *showDate != "" {
			date, err = timezone.ParseDate(*showDate)
			if err != nil {
				serviceutil.Fatal("failed to parse date", err)
			}
		}

		snap, err := store.Get(cmd.Context(), args[0], date)
		if err != nil {
			serviceutil.Fatal("failed to read snapshot", err)
		}
		if snap == nil {
			fmt.Printf("no snapshot for %s on %s\n", args[0], date)
			return
		}

		fmt.Printf("%s as of %s\n", snap.Subject, snap.Date)
		printTable(snap.Main)
		for _, d := range snap.Details {
			fmt.Printf("\nDebenture details for %s\n", d.Holder)
			printTable(d.Table)
		}
	},
}
