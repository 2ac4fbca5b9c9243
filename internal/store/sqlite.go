package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"analytics-sync-service/internal/database"
)

// Watermarks keep nanosecond precision; a run start captured between two
// writes of the same second must still order correctly.
const watermarkLayout = time.RFC3339Nano

// SQLiteStore keeps sync_state and sync_history in the analytics database
// itself, so state survives exactly as long as the data it describes.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) GetWatermark(ctx context.Context, table string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sync_timestamp FROM sync_state WHERE table_name = ?`, table).Scan(&raw)
	if err == sql.ErrNoRows {
		return Epoch, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get watermark %s: %w", table, err)
	}

	ts, err := time.Parse(watermarkLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse watermark %s=%q: %w", table, raw, err)
	}
	return ts, nil
}

func (s *SQLiteStore) SetWatermark(ctx context.Context, table string, ts time.Time) error {
	query := `INSERT INTO sync_state (table_name, last_sync_timestamp) VALUES (?, ?)
			  ON CONFLICT(table_name) DO UPDATE SET
			  last_sync_timestamp = excluded.last_sync_timestamp`

	_, err := s.db.ExecContext(ctx, query, table, ts.UTC().Format(watermarkLayout))
	if err != nil {
		return fmt.Errorf("set watermark %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) SeedWatermarks(ctx context.Context, tables []string) error {
	return database.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, table := range tables {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO sync_state (table_name, last_sync_timestamp) VALUES (?, ?)`,
				table, Epoch.Format(watermarkLayout))
			if err != nil {
				return fmt.Errorf("seed watermark %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Watermarks(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT table_name, last_sync_timestamp FROM sync_state`)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var table, raw string
		if err := rows.Scan(&table, &raw); err != nil {
			return nil, fmt.Errorf("scan watermark: %w", err)
		}
		ts, err := time.Parse(watermarkLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parse watermark %s=%q: %w", table, raw, err)
		}
		out[table] = ts
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateRunRecord(ctx context.Context, rec *RunRecord) error {
	query := `INSERT INTO sync_history (id, started_at, mode, tables_synced, total_rows, gaps, status, error_message)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.StartedAt.UTC().Format(watermarkLayout), rec.Mode,
		rec.TablesSynced, rec.TotalRows, rec.Gaps, rec.Status, rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("create run record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FinishRunRecord(ctx context.Context, rec *RunRecord) error {
	query := `UPDATE sync_history
			  SET completed_at = ?, tables_synced = ?, total_rows = ?, gaps = ?, status = ?, error_message = ?
			  WHERE id = ?`

	var completed any
	if rec.CompletedAt.Valid {
		completed = rec.CompletedAt.Time.UTC().Format(watermarkLayout)
	}

	_, err := s.db.ExecContext(ctx, query,
		completed, rec.TablesSynced, rec.TotalRows, rec.Gaps, rec.Status, rec.ErrorMessage, rec.ID)
	if err != nil {
		return fmt.Errorf("finish run record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RunRecords(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `SELECT id, started_at, completed_at, mode, tables_synced, total_rows, gaps, status, error_message
			  FROM sync_history ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		var completed sql.NullString
		if err := rows.Scan(&rec.ID, &started, &completed, &rec.Mode, &rec.TablesSynced,
			&rec.TotalRows, &rec.Gaps, &rec.Status, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if rec.StartedAt, err = time.Parse(watermarkLayout, started); err != nil {
			return nil, fmt.Errorf("parse run started_at %q: %w", started, err)
		}
		if completed.Valid {
			t, err := time.Parse(watermarkLayout, completed.String)
			if err != nil {
				return nil, fmt.Errorf("parse run completed_at %q: %w", completed.String, err)
			}
			rec.CompletedAt = sql.NullTime{Time: t, Valid: true}
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
