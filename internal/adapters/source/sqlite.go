package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/userboard/internal/domain/model"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT NOT NULL,
  total_average_weight_ratings REAL NOT NULL DEFAULT 0,
  number_of_rents INTEGER NOT NULL DEFAULT 0,
  recently_active TEXT NOT NULL DEFAULT ''
);`

// SQLiteSource reads users from a SQLite users table in rowid order.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the users table exists.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrFetch, path, err)
	}
	if _, err := db.Exec(usersSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %w", ErrFetch, path, err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// Name implements Source.
func (s *SQLiteSource) Name() string { return "sqlite" }

// Fetch implements Source.
func (s *SQLiteSource) Fetch(ctx context.Context) (users []model.UserRecord, err error) {
	start := time.Now()
	defer func() { observe(s.Name(), start, err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, total_average_weight_ratings, number_of_rents, recently_active
		FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = rows.Close() }()

	users = []model.UserRecord{}
	for rows.Next() {
		var u model.UserRecord
		if err := rows.Scan(&u.ID, &u.TotalAverageWeightRatings, &u.NumberOfRents, &u.RecentlyActive); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrDecode, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return users, nil
}

// Seed replaces the users table with records, keeping their order.
func (s *SQLiteSource) Seed(ctx context.Context, records []model.UserRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("seed users: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (id, total_average_weight_ratings, number_of_rents, recently_active)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("seed users: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.TotalAverageWeightRatings, r.NumberOfRents, r.RecentlyActive); err != nil {
			return fmt.Errorf("seed users: insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
