package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"analytics-sync-service/internal/config"
	"analytics-sync-service/internal/database"
	"analytics-sync-service/internal/logger"
	"analytics-sync-service/internal/source"
	"analytics-sync-service/internal/store"
	"analytics-sync-service/internal/target"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "analytics-sync",
	Short:        "Incremental sync from an operational MySQL store into a SQLite analytics mart",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fullLoadCmd)
	rootCmd.AddCommand(incrementalCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file and initializes the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

// engine bundles the wired-up halves of the pipeline for one command
// invocation.
type engine struct {
	cfg      *config.Config
	sourceDB *sql.DB
	targetDB *sql.DB
	reader   *source.MySQL
	mart     *target.SQLite
	state    *store.SQLiteStore
}

// openTarget wires the analytics side only; commands that never touch the
// operational store (init) use this.
func openTarget(cfg *config.Config) (*engine, error) {
	targetDB, err := database.OpenSQLite(cfg.Target.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}
	return &engine{
		cfg:      cfg,
		targetDB: targetDB,
		mart:     target.NewSQLite(targetDB),
		state:    store.NewSQLiteStore(targetDB),
	}, nil
}

// openEngine wires both databases.
func openEngine(cfg *config.Config) (*engine, error) {
	eng, err := openTarget(cfg)
	if err != nil {
		return nil, err
	}
	sourceDB, err := database.OpenMySQL(cfg.Source)
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("failed to connect to source database: %w", err)
	}
	eng.sourceDB = sourceDB
	eng.reader = source.NewMySQL(sourceDB)
	return eng, nil
}

func (e *engine) Close() {
	if e.sourceDB != nil {
		e.sourceDB.Close()
	}
	if e.targetDB != nil {
		e.targetDB.Close()
	}
}
