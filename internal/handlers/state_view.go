package handlers

import (
	"blackjack-table-go/internal/game/blackjack"
	"blackjack-table-go/internal/game/common"
)

// RoundView is the wire snapshot of a round. The deck never appears
// here, and the dealer's hole card stays hidden until the dealer acts.
type RoundView struct {
	TableID            string             `json:"table_id"`
	Players            []blackjack.Player `json:"players"`
	DealerHand         []common.Card      `json:"dealer_hand"`
	DealerTotal        int                `json:"dealer_total"`
	DealerHoleHidden   bool               `json:"dealer_hole_hidden"`
	Phase              blackjack.Phase    `json:"phase"`
	CurrentPlayerIndex int                `json:"current_player_index"`
	RoundNumber        int                `json:"round_number"`
	Message            string             `json:"message"`
}

// buildRoundView deep-copies everything it exposes so the caller can
// release the table lock before serializing.
func buildRoundView(tableID string, r *blackjack.Round) RoundView {
	view := RoundView{
		TableID:            tableID,
		Phase:              r.Phase,
		CurrentPlayerIndex: r.CurrentPlayerIndex,
		RoundNumber:        r.RoundNumber,
		Message:            r.Message,
	}

	view.Players = make([]blackjack.Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		cp.Hand = append([]common.Card(nil), p.Hand...)
		view.Players[i] = cp
	}

	// The dealer's hole card is revealed once the dealer has acted
	// (phase >= dealer). Before that only the upcard and its value go
	// over the wire.
	revealed := r.Phase == blackjack.PhaseDealer || r.Phase == blackjack.PhaseResults || r.Phase == blackjack.PhaseFinished
	if revealed || len(r.DealerHand) <= 1 {
		view.DealerHand = append([]common.Card(nil), r.DealerHand...)
	} else {
		view.DealerHand = []common.Card{r.DealerHand[0]}
		view.DealerHoleHidden = true
	}
	view.DealerTotal = blackjack.HandValue(view.DealerHand)
	return view
}
