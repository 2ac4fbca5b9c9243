package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"analytics-sync-service/internal/logger"
	"analytics-sync-service/internal/sync"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the analytics schema, calendar dimension and watermark rows",
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

		eng, err := openTarget(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := sync.Initialize(cmd.Context(), eng.mart, eng.state, start, end, logger.Log); err != nil {
			return err
		}
		fmt.Println("analytics database initialized")
		return nil
	},
}
