package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"

	"blackjack-table-go/internal/game/blackjack"
	"blackjack-table-go/internal/models"
	"blackjack-table-go/internal/session"
	"blackjack-table-go/internal/tracing"

	"github.com/gin-gonic/gin"
)

type seatRequest struct {
	Name  string `json:"name"`
	BuyIn int    `json:"buy_in"`
}

type createTableRequest struct {
	Seats []seatRequest `json:"seats"`
}

type betRequest struct {
	PlayerID int `json:"player_id"`
	Amount   int `json:"amount"`
}

type actionRequest struct {
	PlayerID int `json:"player_id"`
}

// CreateTableHandler opens a new table session: the owner's wallet is
// debited for all buy-ins up front and the first betting turn begins.
func CreateTableHandler(db *sql.DB, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracing.StartSpan(c.Request.Context(), "handlers.CreateTable")
		defer span.End()

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req createTableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}

		seats := make([]blackjack.SeatEntry, 0, len(req.Seats))
		total := int64(0)
		for _, s := range req.Seats {
			name := strings.TrimSpace(s.Name)
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "seat name required"})
				return
			}
			seats = append(seats, blackjack.SeatEntry{Name: name, Balance: s.BuyIn})
			total += int64(s.BuyIn)
		}

		round, err := blackjack.NewRound(seats)
		if err != nil {
			writeAPIError(c, err)
			return
		}

		if err := models.DebitChips(db, userID, total); err != nil {
			writeAPIError(c, err)
			return
		}

		tbl := store.Create(userID, round)
		if err := models.CreateTableRecord(db, tbl.ID, userID, total); err != nil {
			// Roll back the session and the debit; the table never existed.
			store.Evict(tbl.ID)
			if cerr := models.CreditChips(db, userID, total); cerr != nil {
				log.Printf("CreateTable: refund after record failure: %v", cerr)
			}
			writeAPIError(c, err)
			return
		}

		r, unlock := tbl.Acquire()
		view := buildRoundView(tbl.ID, r)
		unlock()

		c.JSON(http.StatusCreated, gin.H{"table_id": tbl.ID, "state": view})
	}
}

// ListMyTablesHandler returns the session keys of the caller's live tables.
func ListMyTablesHandler(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ids := store.ListByOwner(userID)
		if ids == nil {
			ids = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"table_ids": ids})
	}
}

// GetTableHandler returns a read-only snapshot; it never mutates.
func GetTableHandler(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, ok := store.Lookup(c.Param("id"))
		if !ok {
			writeAPIError(c, models.ErrTableNotFound)
			return
		}
		r, unlock := tbl.Acquire()
		view := buildRoundView(tbl.ID, r)
		unlock()
		c.JSON(http.StatusOK, gin.H{"state": view})
	}
}

// PlaceBetHandler, HitHandler, StandHandler, DoubleDownHandler and
// NextRoundHandler all follow the same shape: resolve the session,
// apply one state-machine operation under the table lock, persist
// results if the round just settled, broadcast, and return the snapshot.

func PlaceBetHandler(db *sql.DB, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req betRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		applyRoundOp(c, db, store, func(r *blackjack.Round) error {
			return r.PlaceBet(req.PlayerID, req.Amount)
		})
	}
}

func HitHandler(db *sql.DB, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		applyRoundOp(c, db, store, func(r *blackjack.Round) error {
			return r.Hit(req.PlayerID)
		})
	}
}

func StandHandler(db *sql.DB, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		applyRoundOp(c, db, store, func(r *blackjack.Round) error {
			return r.Stand(req.PlayerID)
		})
	}
}

func DoubleDownHandler(db *sql.DB, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeAPIError(c, models.ErrInvalidJSON)
			return
		}
		applyRoundOp(c, db, store, func(r *blackjack.Round) error {
			return r.DoubleDown(req.PlayerID)
		})
	}
}

func NextRoundHandler(db *sql.DB, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		applyRoundOp(c, db, store, func(r *blackjack.Round) error {
			return r.NextRound()
		})
	}
}

// applyRoundOp serializes one operation against the table's round. The
// lock covers the mutation, the snapshot, and the results check so no
// other request can interleave (see session.Store).
func applyRoundOp(c *gin.Context, db *sql.DB, store *session.Store, op func(*blackjack.Round) error) {
	_, span := tracing.StartSpan(c.Request.Context(), "handlers.RoundOp")
	defer span.End()

	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	tbl, ok := store.Lookup(c.Param("id"))
	if !ok {
		writeAPIError(c, models.ErrTableNotFound)
		return
	}
	if tbl.OwnerID != userID {
		writeAPIError(c, models.ErrNotTableOwner)
		return
	}

	r, unlock := tbl.Acquire()
	if err := op(r); err != nil {
		unlock()
		writeAPIError(c, err)
		return
	}
	view := buildRoundView(tbl.ID, r)

	var toRecord []models.RoundResult
	if results, resolved := r.Results(); resolved && tbl.ShouldRecord(r.RoundNumber) {
		for _, res := range results {
			toRecord = append(toRecord, models.RoundResult{
				TableID:     tbl.ID,
				RoundNumber: int64(r.RoundNumber),
				SeatID:      int64(res.PlayerID),
				SeatName:    res.Name,
				Bet:         int64(res.Bet),
				Outcome:     string(res.Outcome),
				Payout:      int64(res.Payout),
				Balance:     int64(res.Balance),
				Natural:     res.Natural,
			})
		}
	}
	finished := r.Phase == blackjack.PhaseFinished
	unlock()

	if len(toRecord) > 0 {
		if err := models.InsertRoundResults(db, toRecord); err != nil {
			log.Printf("applyRoundOp: record round results (table=%s): %v", tbl.ID, err)
		}
	}
	if finished {
		if err := models.CloseTableRecord(db, tbl.ID); err != nil {
			log.Printf("applyRoundOp: close table record (table=%s): %v", tbl.ID, err)
		}
	}

	broadcastTableUpdate(tbl.ID, view)
	c.JSON(http.StatusOK, gin.H{"state": view})
}

// CloseTableHandler evicts the session and cashes remaining seat
// balances back into the owner's wallet.
func CloseTableHandler(db *sql.DB, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		tbl, ok := store.Lookup(c.Param("id"))
		if !ok {
			writeAPIError(c, models.ErrTableNotFound)
			return
		}
		if tbl.OwnerID != userID {
			writeAPIError(c, models.ErrNotTableOwner)
			return
		}

		tbl, ok = store.Evict(tbl.ID)
		if !ok {
			writeAPIError(c, models.ErrTableNotFound)
			return
		}
		r, unlock := tbl.Acquire()
		refund := int64(0)
		for _, p := range r.Players {
			refund += int64(p.Balance)
		}
		unlock()

		if refund > 0 {
			if err := models.CreditChips(db, userID, refund); err != nil {
				log.Printf("CloseTable: credit refund (table=%s): %v", tbl.ID, err)
			}
		}
		if err := models.CloseTableRecord(db, tbl.ID); err != nil {
			log.Printf("CloseTable: close record (table=%s): %v", tbl.ID, err)
		}
		c.JSON(http.StatusOK, gin.H{"refunded": refund})
	}
}

// TableHistoryHandler lists settled rounds for a table, newest first.
func TableHistoryHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracing.StartSpan(c.Request.Context(), "handlers.TableHistory")
		defer span.End()

		id := c.Param("id")
		if _, err := models.GetTableRecord(db, id); err != nil {
			writeAPIError(c, err)
			return
		}
		results, err := models.ListRoundResultsByTable(db, id, 200)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}
