/**
 * PostgreSQL Client for the result-screen OCR worker
 *
 * Optional sink that keeps every run's rows next to the CSV report.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/lib/pq"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
	"github.com/adverant/nexus/resultocr-worker/internal/processor"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS result_rows (
	run_id        UUID        NOT NULL,
	position      INTEGER     NOT NULL,
	title         TEXT        NOT NULL,
	level         TEXT        NOT NULL,
	creation_date TEXT        NOT NULL,
	stored_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, position)
)`

// resultColumns are the COPY target columns, in record order
var resultColumns = []string{"run_id", "position", "title", "level", "creation_date"}

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient connects, retrying the initial ping, and ensures the
// result table exists.
func NewPostgresClient(ctx context.Context, databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// reportRecords flattens rows into COPY records, keeping processing order in
// the position column.
func reportRecords(runID string, rows []processor.ReportRow) [][]interface{} {
	records := make([][]interface{}, 0, len(rows))
	for i, row := range rows {
		records = append(records, []interface{}{runID, i, row.Title, row.Level, row.CreationDate})
	}
	return records
}

// StoreReport inserts all rows of a run in one transaction
func (p *PostgresClient) StoreReport(ctx context.Context, runID string, rows []processor.ReportRow) error {
	if runID == "" {
		return fmt.Errorf("run ID is required")
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageFailedError(runID, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("result_rows", resultColumns...))
	if err != nil {
		return errors.NewStorageFailedError(runID, err)
	}

	for _, record := range reportRecords(runID, rows) {
		if _, err := stmt.ExecContext(ctx, record...); err != nil {
			stmt.Close()
			return errors.NewStorageFailedError(runID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return errors.NewStorageFailedError(runID, err)
	}
	if err := stmt.Close(); err != nil {
		return errors.NewStorageFailedError(runID, err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageFailedError(runID, err)
	}
	return nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
