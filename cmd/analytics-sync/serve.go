package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"analytics-sync-service/internal/api"
	"analytics-sync-service/internal/logger"
	"analytics-sync-service/internal/sync"
	"analytics-sync-service/internal/validate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP control plane with optional scheduled syncs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		logger.Log.Info("starting analytics sync service")

		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		start, end, err := cfg.Load.DateDimRange()
		if err != nil {
			return fmt.Errorf("invalid date dimension range: %w", err)
		}
		if err := sync.Initialize(cmd.Context(), eng.mart, eng.state, start, end, logger.Log); err != nil {
			return err
		}

		runner := sync.NewIncremental(eng.reader, eng.mart, eng.state, logger.Log)
		validator := validate.New(eng.reader, eng.mart, cfg.Validation, logger.Log)
		manager := sync.NewManager(runner, validator, logger.Log)

		scheduler := sync.NewScheduler(cfg.Scheduler, manager, logger.Log)
		scheduler.Start()

		handler := api.NewHandler(manager, eng.state)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		server := &http.Server{
			Addr:         addr,
			Handler:      handler.Routes(),
			ReadTimeout:  cfg.Server.GetReadTimeout(),
			WriteTimeout: cfg.Server.GetWriteTimeout(),
		}

		go func() {
			logger.Log.Info("server listening", zap.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Log.Fatal("server failed", zap.Error(err))
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Log.Info("shutting down")
		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("server shutdown failed", zap.Error(err))
		}
		return nil
	},
}
