package commands

import (
	"fmt"

	"hkexwatch/lib/serviceutil"
	"hkexwatch/services/notify"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(testmailCmd)
}

var testmailCmd = &cobra.Command{
	Use:   "testmail",
	Short: "Sends a test email to verify SMTP credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		err = notify.NewService(cfg.Smtp).SendTest(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to send test email", err)
		}
		fmt.Println("test email sent to", cfg.Smtp.Receivers)
	},
}
