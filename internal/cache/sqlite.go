package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS phrases (
	phrase TEXT PRIMARY KEY,
	ipa    TEXT NOT NULL
)`

// SQLite persists phrases in a single table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (c *SQLite) Get(ctx context.Context, phrase string) (string, bool, error) {
	var ipa string
	err := c.db.QueryRowContext(ctx, `SELECT ipa FROM phrases WHERE phrase = ?`, phrase).Scan(&ipa)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("sqlite get %q: %w", phrase, err)
	}
	return ipa, true, nil
}

func (c *SQLite) Set(ctx context.Context, phrase, value string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO phrases (phrase, ipa) VALUES (?, ?)
		 ON CONFLICT(phrase) DO UPDATE SET ipa = excluded.ipa`, phrase, value)
	if err != nil {
		return fmt.Errorf("sqlite set %q: %w", phrase, err)
	}
	return nil
}

func (c *SQLite) Delete(ctx context.Context, phrase string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM phrases WHERE phrase = ?`, phrase); err != nil {
		return fmt.Errorf("sqlite delete %q: %w", phrase, err)
	}
	return nil
}

func (c *SQLite) Close() error {
	return c.db.Close()
}
