package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var remindCompany string

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send deadline reminders to vendors who have not quoted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.reminder.SendReminders(ctx, remindCompany)
		if err != nil {
			return eris.Wrap(err, "send reminders")
		}

		zap.L().Info("reminder run complete",
			zap.String("company_id", result.CompanyID),
			zap.Int("rfqs_checked", result.RFQsChecked),
			zap.Int("sent", result.Sent),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	remindCmd.Flags().StringVar(&remindCompany, "company", "", "company ID / mailbox account (required)")
	_ = remindCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(remindCmd)
}
