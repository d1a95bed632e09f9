// Package history persists conversion batch metadata to PostgreSQL.
//
// History is an optional sidecar: the converter core never depends on it and
// CSV payloads are never stored, only batch metadata (file names, document
// and row counts, duration, outcome). The server runs fine without a
// database; when DATABASE_URL is unset the store is simply not wired in.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FadliGr1/abd-to-csv/internal/core"
)

// Store records and queries conversion history in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the history table if it does not exist.
// Called once at startup; safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversion_history (
			id          BIGSERIAL PRIMARY KEY,
			batch_id    UUID NOT NULL,
			file_names  TEXT NOT NULL,
			documents   INT NOT NULL,
			total_rows  INT NOT NULL,
			duration_ms BIGINT NOT NULL,
			error       TEXT,
			ip_address  TEXT,
			user_agent  TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

// RecordBatch implements core.BatchRecorder.
func (s *Store) RecordBatch(ctx context.Context, rec core.BatchRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversion_history
			(batch_id, file_names, documents, total_rows, duration_ms, error, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.BatchID,
		strings.Join(rec.FileNames, ", "),
		rec.Documents,
		rec.TotalRows,
		rec.Duration.Milliseconds(),
		toPgText(rec.Error),
		toPgText(rec.IPAddress),
		toPgText(rec.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Entry is one row of conversion history.
type Entry struct {
	BatchID   string    `json:"batch_id"`
	FileNames string    `json:"file_names"`
	Documents int       `json:"documents"`
	TotalRows int       `json:"total_rows"`
	Duration  string    `json:"duration"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recent returns the most recent history entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT batch_id, file_names, documents, total_rows, duration_ms, error, created_at
		FROM conversion_history
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMs int64
			errText    pgtype.Text
		)
		if err := rows.Scan(&e.BatchID, &e.FileNames, &e.Documents, &e.TotalRows, &durationMs, &errText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Duration = (time.Duration(durationMs) * time.Millisecond).String()
		if errText.Valid {
			e.Error = errText.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than the retention window and returns the
// number of rows removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversion_history WHERE created_at < $1`,
		time.Now().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StartPruner runs Prune on an interval until ctx is cancelled.
// Intended to be launched as a background goroutine from main.
func (s *Store) StartPruner(ctx context.Context, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			_, _ = s.Prune(pruneCtx, retention)
			cancel()
		}
	}
}

// toPgText converts a string to pgtype.Text, invalid when empty.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
