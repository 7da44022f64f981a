package models

import (
	"database/sql"
	"errors"
	"time"
)

type ChipPurchase struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"user_id"`
	StripePaymentIntentID string     `json:"-"`
	Pack                  string     `json:"pack"`
	Chips                 int64      `json:"chips"`
	AmountCents           int64      `json:"amount_cents"`
	Currency              string     `json:"currency"`
	Status                string     `json:"status"` // pending|credited
	CreatedAt             time.Time  `json:"created_at"`
	CreditedAt            *time.Time `json:"credited_at,omitempty"`
}

func InsertChipPurchase(db *sql.DB, userID int64, intentID, pack string, chips, amountCents int64) error {
	_, err := db.Exec(
		`INSERT INTO chip_purchases(user_id, stripe_payment_intent_id, pack, chips, amount_cents) VALUES (?, ?, ?, ?, ?)`,
		userID, intentID, pack, chips, amountCents,
	)
	return err
}

// MarkPurchaseCredited flips a pending purchase to credited and returns
// the user and chip amount to credit. ok is false when the intent is
// unknown or was already credited, which makes webhook retries harmless.
func MarkPurchaseCredited(db *sql.DB, intentID string) (userID int64, chips int64, ok bool, err error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, 0, false, err
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`SELECT user_id, chips FROM chip_purchases WHERE stripe_payment_intent_id = ? AND status = 'pending'`,
		intentID,
	).Scan(&userID, &chips)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}

	if _, err := tx.Exec(
		`UPDATE chip_purchases SET status = 'credited', credited_at = CURRENT_TIMESTAMP
		 WHERE stripe_payment_intent_id = ? AND status = 'pending'`,
		intentID,
	); err != nil {
		return 0, 0, false, err
	}
	if _, err := tx.Exec(`UPDATE users SET chips = chips + ? WHERE id = ?`, chips, userID); err != nil {
		return 0, 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, false, err
	}
	return userID, chips, true, nil
}

func ListChipPurchasesByUser(db *sql.DB, userID int64, limit int) ([]ChipPurchase, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, user_id, stripe_payment_intent_id, pack, chips, amount_cents, currency, status, created_at, credited_at
		 FROM chip_purchases WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChipPurchase
	for rows.Next() {
		var p ChipPurchase
		var credited sql.NullTime
		if err := rows.Scan(&p.ID, &p.UserID, &p.StripePaymentIntentID, &p.Pack, &p.Chips, &p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt, &credited); err != nil {
			return nil, err
		}
		if credited.Valid {
			v := credited.Time
			p.CreditedAt = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
