package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Run applies all pending migrations to the analytics database.
func Run(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Reset rolls every migration back and re-applies them, dropping all
// analytics data. Used by the forced full load.
func Reset(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Reset(db, "."); err != nil {
		return fmt.Errorf("reset migrations: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("re-run migrations: %w", err)
	}
	return nil
}
