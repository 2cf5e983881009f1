package commands

import (
	"context"
	"fmt"
	"os"

	"hkexwatch/lib/configuration"
	"hkexwatch/lib/configutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "diwatch-cli",
	Short: "diwatch-cli inspects and exercises the HKEX disclosure monitor.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() (configuration.App, error) {
	return configutil.ReadConfig[configuration.App]("config.json5")
}
