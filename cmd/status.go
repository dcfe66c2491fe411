package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/milltech-erp/procure-cli/internal/monitoring"
)

var (
	statusCompany string
	statusHours   int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reconciliation health metrics for one company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		hours := statusHours
		if hours <= 0 {
			hours = cfg.Monitoring.LookbackWindowHours
		}

		snap, err := monitoring.NewCollector(st).Collect(ctx, statusCompany, hours)
		if err != nil {
			return eris.Wrap(err, "collect metrics")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusCompany, "company", "", "company ID (required)")
	statusCmd.Flags().IntVar(&statusHours, "hours", 0, "lookback window in hours (default from config)")
	_ = statusCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(statusCmd)
}
