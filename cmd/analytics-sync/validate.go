package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"analytics-sync-service/internal/logger"
	"analytics-sync-service/internal/validate"
)

var validateDays int

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Cross-check aggregates between the source and the analytics mart",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		validator := validate.New(eng.reader, eng.mart, cfg.Validation, logger.Log)
		report, err := validator.Run(cmd.Context(), validateDays)
		if err != nil {
			return err
		}
		fmt.Print(report.Summary())
		if report.Failed() {
			return fmt.Errorf("validation verdict: %s", report.Verdict)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().IntVar(&validateDays, "days", 0, "lookback window in days (default from config)")
}
