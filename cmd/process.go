package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/milltech-erp/procure-cli/internal/cost"
)

var processCompany string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile unread RFQ reply emails for one company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.engine.ProcessInbox(ctx, processCompany)
		if err != nil {
			return eris.Wrap(err, "process inbox")
		}

		zap.L().Info("inbox reconciliation complete",
			zap.String("company_id", result.CompanyID),
			zap.Int("total_found", result.TotalFound),
			zap.Int("quotations_created", result.QuotationsCreated),
			zap.Int("manual_review", result.ManualReview),
			zap.Int("rejected", result.Rejected),
			zap.Int("failed", result.Failed),
		)

		if in, out := env.extractor.Usage(); in+out > 0 {
			usd := cost.NewCalculator(cost.DefaultRates()).Claude(cfg.Anthropic.Model, in, out)
			zap.L().Info("llm extraction usage",
				zap.Int64("input_tokens", in),
				zap.Int64("output_tokens", out),
				zap.Float64("cost_usd", usd),
			)
		}

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	processCmd.Flags().StringVar(&processCompany, "company", "", "company ID / mailbox account (required)")
	_ = processCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(processCmd)
}
