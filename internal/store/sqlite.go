package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matches (
	address  TEXT PRIMARY KEY,
	pem      TEXT NOT NULL,
	exponent INTEGER NOT NULL,
	worker   INTEGER NOT NULL,
	run_id   TEXT NOT NULL,
	found_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id);`

// SQLiteSink indexes matches in a SQLite database. Each sink instance tags
// its rows with a fresh run ID.
type SQLiteSink struct {
	db    *sql.DB
	path  string
	runID uuid.UUID
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Workers write concurrently; serialize them on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteSink{db: db, path: path, runID: uuid.New()}, nil
}

// RunID identifies the rows written by this sink.
func (s *SQLiteSink) RunID() uuid.UUID { return s.runID }

// Path returns the database file path.
func (s *SQLiteSink) Path() string { return s.path }

// Write implements Sink.
func (s *SQLiteSink) Write(ctx context.Context, rec oniongen.MatchRecord) error {
	foundAt := rec.FoundAt
	if foundAt.IsZero() {
		foundAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (address, pem, exponent, worker, run_id, found_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(address) DO NOTHING`,
		rec.Address, string(rec.EncodePEM()), rec.Key.E, rec.Worker, s.runID.String(), foundAt.UTC())
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.Address, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.Address, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", rec.Address, ErrExists)
	}
	return nil
}

// Count returns the number of stored matches.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// PEM returns the stored private key for address.
func (s *SQLiteSink) PEM(ctx context.Context, address string) (string, error) {
	var pem string
	err := s.db.QueryRowContext(ctx, `SELECT pem FROM matches WHERE address = ?`, address).Scan(&pem)
	return pem, err
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
