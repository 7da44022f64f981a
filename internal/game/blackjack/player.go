package blackjack

import "blackjack-table-go/internal/game/common"

type Outcome string

const (
	OutcomeNone Outcome = "none"
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomePush Outcome = "push"
)

// Player is one seat at the table. Seat order is fixed for the session;
// Balance carries across rounds, everything else is reset by NextRound.
type Player struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Hand          []common.Card `json:"hand"`
	Total         int           `json:"total"`
	Balance       int           `json:"balance"`
	Bet           int           `json:"bet"`
	CanDoubleDown bool          `json:"can_double_down"`
	IsActive      bool          `json:"is_active"`
	IsFinished    bool          `json:"is_finished"`
	Outcome       Outcome       `json:"outcome"`
}

// eligibleDoubleDown: exactly the opening two cards, enough balance to
// cover the doubled bet, and the seat still in play.
func (p *Player) eligibleDoubleDown() bool {
	return len(p.Hand) == 2 && p.Balance >= p.Bet*2 && !p.IsFinished
}

func (p *Player) resetForRound() {
	p.Hand = nil
	p.Total = 0
	p.Bet = 0
	p.CanDoubleDown = false
	p.IsActive = false
	p.IsFinished = false
	p.Outcome = OutcomeNone
}
