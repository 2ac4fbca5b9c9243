package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"analytics-sync-service/internal/logger"
	"analytics-sync-service/internal/sync"
)

var fullLoadForce bool

var fullLoadCmd = &cobra.Command{
	Use:   "full-load",
	Short: "Load the entire source into the analytics mart and seal watermarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		start, end, err := cfg.Load.DateDimRange()
		if err != nil {
			return fmt.Errorf("invalid date dimension range: %w", err)
		}

		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		loader := sync.NewFullLoad(eng.reader, eng.mart, eng.state, start, end, logger.Log)
		report, err := loader.Run(cmd.Context(), fullLoadForce)
		if err != nil {
			return err
		}
		fmt.Print(report.Summary())
		return nil
	},
}

func init() {
	fullLoadCmd.Flags().BoolVar(&fullLoadForce, "force", false, "drop and recreate the analytics schema before loading")
}
