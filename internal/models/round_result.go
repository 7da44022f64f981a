package models

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// RoundResult is one seat's settled outcome in one round.
type RoundResult struct {
	ID          int64     `json:"id"`
	TableID     string    `json:"table_id"`
	RoundNumber int64     `json:"round_number"`
	SeatID      int64     `json:"seat_id"`
	SeatName    string    `json:"seat_name"`
	Bet         int64     `json:"bet"`
	Outcome     string    `json:"outcome"` // win|lose|push
	Payout      int64     `json:"payout"`
	Balance     int64     `json:"balance"`
	Natural     bool      `json:"natural"`
	CreatedAt   time.Time `json:"created_at"`
}

// InsertRoundResults writes all seats of one resolved round in a single
// transaction. The UNIQUE(table_id, round_number, seat_id) constraint
// makes accidental re-recording a hard failure rather than double rows.
func InsertRoundResults(db *sql.DB, results []RoundResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, r := range results {
		if _, err := tx.Exec(
			`INSERT INTO round_results(table_id, round_number, seat_id, seat_name, bet, outcome, payout, balance, is_natural)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.TableID, r.RoundNumber, r.SeatID, r.SeatName, r.Bet, r.Outcome, r.Payout, r.Balance, boolToInt(r.Natural),
		); err != nil {
			return fmt.Errorf("insert round result (table=%s round=%d seat=%d): %w", r.TableID, r.RoundNumber, r.SeatID, err)
		}
	}
	return tx.Commit()
}

// ListRoundResultsByTable returns a table's history, newest round first,
// seats in order within a round.
func ListRoundResultsByTable(db *sql.DB, tableID string, limit int) ([]RoundResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := db.Query(
		`SELECT id, table_id, round_number, seat_id, seat_name, bet, outcome, payout, balance, is_natural, created_at
		 FROM round_results WHERE table_id = ?
		 ORDER BY round_number DESC, seat_id ASC LIMIT ?`,
		tableID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundResult
	for rows.Next() {
		var r RoundResult
		var natural any
		if err := rows.Scan(&r.ID, &r.TableID, &r.RoundNumber, &r.SeatID, &r.SeatName, &r.Bet, &r.Outcome, &r.Payout, &r.Balance, &natural, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan round result (table=%s): %w", tableID, err)
		}
		r.Natural = parseSQLiteBool(natural)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LeaderboardEntry aggregates one table owner's results over the window.
type LeaderboardEntry struct {
	UserID       int64   `json:"user_id"`
	Username     string  `json:"username"`
	RoundsPlayed int64   `json:"rounds_played"`
	RoundsWon    int64   `json:"rounds_won"`
	NetWinnings  int64   `json:"net_winnings"`
	WinRate      float64 `json:"win_rate"` // [0..1]
}

// LeaderboardResponse contains leaderboard data for a time window.
type LeaderboardResponse struct {
	Days  int64              `json:"days"`
	Items []LeaderboardEntry `json:"items"`
}

// BuildLeaderboard aggregates round results per table owner within the
// given window. The days parameter is normalized to [1, 365].
func BuildLeaderboard(ctx context.Context, db *sql.DB, days int64) (*LeaderboardResponse, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	since := fmt.Sprintf("-%d days", days-1)
	rows, err := db.QueryContext(
		ctx,
		`SELECT u.id, u.username,
		        COUNT(*) AS rounds_played,
		        SUM(CASE WHEN rr.outcome = 'win' THEN 1 ELSE 0 END) AS rounds_won,
		        SUM(rr.payout) AS net_winnings
		 FROM round_results rr
		 JOIN game_tables gt ON gt.id = rr.table_id
		 JOIN users u ON u.id = gt.owner_id
		 WHERE rr.created_at >= DATE('now', ?)
		 GROUP BY u.id, u.username`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("BuildLeaderboard: querying aggregates: %w", err)
	}
	defer rows.Close()

	items := make([]LeaderboardEntry, 0)
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.RoundsPlayed, &e.RoundsWon, &e.NetWinnings); err != nil {
			return nil, fmt.Errorf("BuildLeaderboard: scanning row: %w", err)
		}
		if e.RoundsPlayed > 0 {
			e.WinRate = float64(e.RoundsWon) / float64(e.RoundsPlayed)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("BuildLeaderboard: iterating rows: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].NetWinnings != items[j].NetWinnings {
			return items[i].NetWinnings > items[j].NetWinnings
		}
		if items[i].WinRate != items[j].WinRate {
			return items[i].WinRate > items[j].WinRate
		}
		return items[i].Username < items[j].Username
	})

	return &LeaderboardResponse{Days: days, Items: items}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseSQLiteBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case []byte:
		return len(t) > 0 && t[0] == '1'
	case string:
		return t == "1" || t == "true"
	default:
		return false
	}
}
