package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/store"
)

// ErrNoRuns is returned by LatestRun before anything has been exported.
var ErrNoRuns = errors.New("no export runs stored")

// ExportRepository handles export run data access
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new export repository
func NewExportRepository(db *store.Database) *ExportRepository {
	return newExportRepository(db.DB())
}

func newExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// SaveRun stores run and its rows in one transaction and returns the new run ID.
func (r *ExportRepository) SaveRun(ctx context.Context, run *store.ExportRun, rows []export.Row) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO export_runs (source_url, seasons, player_ids, row_count)
		VALUES ($1, $2, $3, $4)
		RETURNING run_id, created_at
	`, run.SourceURL, run.Seasons, run.PlayerIDs, len(rows)).Scan(&run.RunID, &run.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting export run: %w", err)
	}
	run.RowCount = len(rows)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO export_rows (run_id, ordinal, game_id, rebounds)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, run.RunID, i, row.GameID, row.Rebounds); err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing export run: %w", err)
	}
	return run.RunID, nil
}

// LatestRun returns the most recent export run.
func (r *ExportRepository) LatestRun(ctx context.Context) (*store.ExportRun, error) {
	run := &store.ExportRun{}
	err := r.db.QueryRowContext(ctx, `
		SELECT run_id, source_url, seasons, player_ids, row_count, created_at
		FROM export_runs
		ORDER BY run_id DESC
		LIMIT 1
	`).Scan(&run.RunID, &run.SourceURL, &run.Seasons, &run.PlayerIDs, &run.RowCount, &run.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	return run, nil
}

// GetRunRows returns the rows of a run in source order.
func (r *ExportRepository) GetRunRows(ctx context.Context, runID int64) ([]export.Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT game_id, rebounds
		FROM export_rows
		WHERE run_id = $1
		ORDER BY ordinal
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run rows: %w", err)
	}
	defer rows.Close()

	out := []export.Row{}
	for rows.Next() {
		var row export.Row
		if err := rows.Scan(&row.GameID, &row.Rebounds); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
