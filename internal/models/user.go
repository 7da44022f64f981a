package models

import (
	"database/sql"
	"errors"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Chips        int64     `json:"chips"`
	CreatedAt    time.Time `json:"created_at"`
}

func CreateUser(db *sql.DB, username, passwordHash string) (*User, error) {
	res, err := db.Exec(
		`INSERT INTO users(username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetUserByID(db, id)
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	var u User
	err := db.QueryRow(
		`SELECT id, username, password_hash, chips, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Chips, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	var u User
	err := db.QueryRow(
		`SELECT id, username, password_hash, chips, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Chips, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DebitChips removes amount from the user's wallet. The guard in the
// WHERE clause keeps the wallet non-negative even under concurrent
// debits; zero rows affected means insufficient chips.
func DebitChips(db *sql.DB, userID int64, amount int64) error {
	if amount <= 0 {
		return errors.New("invalid debit amount")
	}
	res, err := db.Exec(
		`UPDATE users SET chips = chips - ? WHERE id = ? AND chips >= ?`,
		amount, userID, amount,
	)
	if err != nil {
		return err
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if ra == 0 {
		return ErrInsufficientChips
	}
	return nil
}

func CreditChips(db *sql.DB, userID int64, amount int64) error {
	if amount < 0 {
		return errors.New("invalid credit amount")
	}
	if amount == 0 {
		return nil
	}
	res, err := db.Exec(`UPDATE users SET chips = chips + ? WHERE id = ?`, amount, userID)
	if err != nil {
		return err
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if ra == 0 {
		return ErrNotFound
	}
	return nil
}
