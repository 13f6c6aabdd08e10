// Package store persists the last successfully resolved card of each user.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/m3rciful/cardbot/core/logger"
)

// Record is one row of the users table.
type Record struct {
	UserID     int64     `db:"user_id" json:"user_id"`
	Username   *string   `db:"username" json:"username"`
	CardNumber string    `db:"card_number" json:"card_number"`
	OwnerName  string    `db:"owner_name" json:"owner_name"`
	BankName   string    `db:"bank_name" json:"bank_name"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

const upsertQuery = `
INSERT INTO users (user_id, username, card_number, owner_name, bank_name, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    username    = excluded.username,
    card_number = excluded.card_number,
    owner_name  = excluded.owner_name,
    bank_name   = excluded.bank_name,
    updated_at  = excluded.updated_at`

const listQuery = `
SELECT user_id, username, card_number, owner_name, bank_name, updated_at
FROM users
ORDER BY user_id`

// Store is a sqlx backed record store for SQLite and Postgres.
type Store struct {
	db     *sqlx.DB
	upsert string
	now    func() time.Time
}

// New binds the queries to the placeholder style of db's driver.
func New(db *sqlx.DB) *Store {
	return &Store{
		db:     db,
		upsert: db.Rebind(upsertQuery),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Upsert inserts rec or replaces the existing record of the same user.
// UpdatedAt is set by the store.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	rec.UpdatedAt = s.now()
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.upsert,
		rec.UserID, rec.Username, rec.CardNumber, rec.OwnerName, rec.BankName, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert user %d: %w", rec.UserID, err)
	}
	logger.Debug(ctx, "db", "record.upserted",
		slog.String("status", "ok"),
		slog.String("card", logger.MaskCard(rec.CardNumber)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// ListAll returns every record ordered by user id.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	records := []Record{}
	if err := s.db.SelectContext(ctx, &records, listQuery); err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	return records, nil
}
