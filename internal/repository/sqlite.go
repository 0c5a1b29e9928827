package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/chatbridge/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS exchanges (
			exchange_id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			run_id TEXT,
			status TEXT,
			outcome TEXT NOT NULL,
			http_status INTEGER NOT NULL,
			polls INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_thread ON exchanges(thread_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateExchange inserts one journal record.
func (s *SQLiteStore) CreateExchange(ctx context.Context, ex *domain.Exchange) error {
	var runID, status sql.NullString
	if ex.RunID != "" {
		runID = sql.NullString{String: ex.RunID, Valid: true}
	}
	if ex.Status != "" {
		status = sql.NullString{String: string(ex.Status), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (exchange_id, thread_id, run_id, status, outcome, http_status, polls, elapsed_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ExchangeID, ex.ThreadID, runID, status, string(ex.Outcome), ex.HTTPStatus, ex.Polls, ex.ElapsedMs, ex.CreatedAt.UTC(),
	)
	return err
}

// ListExchanges returns the newest records of a thread first.
func (s *SQLiteStore) ListExchanges(ctx context.Context, threadID string, limit int) ([]domain.Exchange, error) {
	query := `SELECT exchange_id, thread_id, run_id, status, outcome, http_status, polls, elapsed_ms, created_at FROM exchanges WHERE thread_id = ? ORDER BY created_at DESC, exchange_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exchanges := []domain.Exchange{}
	for rows.Next() {
		var ex domain.Exchange
		var runID, status sql.NullString
		var outcome string
		if err := rows.Scan(&ex.ExchangeID, &ex.ThreadID, &runID, &status, &outcome, &ex.HTTPStatus, &ex.Polls, &ex.ElapsedMs, &ex.CreatedAt); err != nil {
			return nil, err
		}
		if runID.Valid {
			ex.RunID = runID.String
		}
		if status.Valid {
			ex.Status = domain.RunStatus(status.String)
		}
		ex.Outcome = domain.Outcome(outcome)
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}
