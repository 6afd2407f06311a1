package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single-file SQLite database using
// the pure-Go driver.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the user database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps the single writer from stalling hydration reads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		score   INTEGER NOT NULL DEFAULT 0,
		color   TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`)
	return err
}

// GetUser loads a user record; the second return value reports presence.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (User, bool, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT score, color FROM users WHERE user_id = ?`, userID,
	).Scan(&u.Score, &u.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, true, nil
}

// AddScore adds delta to the stored score, inserting the row if absent.
// The increment resolves inside SQLite, so concurrent writers never lose
// updates to a read-modify-write race.
func (s *SQLiteStore) AddScore(ctx context.Context, userID string, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, score) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			score = score + excluded.score,
			updated_at = datetime('now')`,
		userID, delta,
	)
	if err != nil {
		return fmt.Errorf("add score %s: %w", userID, err)
	}
	return nil
}

// SetScore overwrites the stored score.
func (s *SQLiteStore) SetScore(ctx context.Context, userID string, score int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, score) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			score = excluded.score,
			updated_at = datetime('now')`,
		userID, score,
	)
	if err != nil {
		return fmt.Errorf("set score %s: %w", userID, err)
	}
	return nil
}

// SetColor overwrites the stored color.
func (s *SQLiteStore) SetColor(ctx context.Context, userID string, color string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, color) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			color = excluded.color,
			updated_at = datetime('now')`,
		userID, color,
	)
	if err != nil {
		return fmt.Errorf("set color %s: %w", userID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
