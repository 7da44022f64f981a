package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"blackjack-table-go/internal/game/common"
	"blackjack-table-go/internal/models"

	"github.com/gin-gonic/gin"
)

// writeAPIError maps core errors to HTTP responses. Rule rejections and
// session misses are safe to echo; anything else (including internal
// invariant violations like deck exhaustion) is logged and returned as
// a generic 500 so the request fails loudly without leaking internals.
func writeAPIError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// Session errors: the caller should start a new table.
	if errors.Is(err, models.ErrTableNotFound) || errors.Is(err, models.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// Rule rejections (no state was mutated).
	switch {
	case errors.Is(err, models.ErrInvalidJSON):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	case errors.Is(err, models.ErrNoPlayers):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no players"})
		return
	case errors.Is(err, models.ErrInvalidBuyIn):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid buy-in"})
		return
	case errors.Is(err, models.ErrUnknownPlayer):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown player"})
		return
	case errors.Is(err, models.ErrInvalidBet):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid bet amount"})
		return
	case errors.Is(err, models.ErrNotYourTurn):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "not your turn"})
		return
	case errors.Is(err, models.ErrNotInBettingPhase):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "not in betting phase"})
		return
	case errors.Is(err, models.ErrNotInPlayingPhase):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "not in playing phase"})
		return
	case errors.Is(err, models.ErrNotInResultsPhase):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "not in results phase"})
		return
	case errors.Is(err, models.ErrCannotDoubleDown):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "cannot double down"})
		return
	case errors.Is(err, models.ErrInsufficientChips):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "insufficient chips"})
		return
	case errors.Is(err, models.ErrNotTableOwner):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not table owner"})
		return
	}

	// Invariant violations and unknown errors: log details, return generic message.
	if errors.Is(err, common.ErrDeckExhausted) || errors.Is(err, models.ErrCorruptTurnIndex) {
		log.Printf("invariant violation: %v", err)
	} else {
		log.Printf("internal error: %v", err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
