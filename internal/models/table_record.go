package models

import (
	"database/sql"
	"errors"
	"time"
)

// TableRecord is the persisted footprint of a table session: ownership
// and buy-in accounting. Live round state never touches the database.
type TableRecord struct {
	ID         string     `json:"id"`
	OwnerID    int64      `json:"owner_id"`
	BuyInTotal int64      `json:"buy_in_total"`
	Status     string     `json:"status"` // live|closed
	CreatedAt  time.Time  `json:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

func CreateTableRecord(db *sql.DB, id string, ownerID int64, buyInTotal int64) error {
	_, err := db.Exec(
		`INSERT INTO game_tables(id, owner_id, buy_in_total, status) VALUES (?, ?, ?, 'live')`,
		id, ownerID, buyInTotal,
	)
	return err
}

func GetTableRecord(db *sql.DB, id string) (*TableRecord, error) {
	var t TableRecord
	var closed sql.NullTime
	err := db.QueryRow(
		`SELECT id, owner_id, buy_in_total, status, created_at, closed_at FROM game_tables WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.OwnerID, &t.BuyInTotal, &t.Status, &t.CreatedAt, &closed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if closed.Valid {
		v := closed.Time
		t.ClosedAt = &v
	}
	return &t, nil
}

// CloseTableRecord marks the session closed. Idempotent: closing an
// already-closed table affects no rows and is not an error.
func CloseTableRecord(db *sql.DB, id string) error {
	_, err := db.Exec(
		`UPDATE game_tables SET status = 'closed', closed_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'live'`,
		id,
	)
	return err
}
