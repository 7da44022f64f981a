package blackjack

import (
	"fmt"

	"blackjack-table-go/internal/game/common"
	"blackjack-table-go/internal/models"
)

type Phase string

const (
	PhaseBetting  Phase = "betting"
	PhasePlaying  Phase = "playing"
	PhaseDealer   Phase = "dealer"
	PhaseResults  Phase = "results"
	PhaseFinished Phase = "finished"
)

// Round is the server-authoritative state of one table. A session owns
// exactly one Round at a time; every operation mutates it in place and
// assumes the caller serializes access (see session.Store).
//
// The deck is never exposed to clients; handlers build snapshots with
// the deck omitted and the dealer hole card masked until the dealer acts.
type Round struct {
	Deck        []common.Card `json:"-"`
	Players     []*Player     `json:"players"`
	DealerHand  []common.Card `json:"dealer_hand"`
	DealerTotal int           `json:"dealer_total"`
	Phase       Phase         `json:"phase"`

	// CurrentPlayerIndex points at the lowest-indexed active seat, or is
	// out of range when no seat is active (dealer/results/finished).
	CurrentPlayerIndex int    `json:"current_player_index"`
	RoundNumber        int    `json:"round_number"`
	Message            string `json:"message"`

	resolved bool
}

// SeatEntry is a (name, starting balance) pair for NewRound.
type SeatEntry struct {
	Name    string
	Balance int
}

// NewRound seats the given players with their starting balances, builds
// a fresh shuffled deck, and opens betting with the first seat active.
func NewRound(seats []SeatEntry) (*Round, error) {
	if len(seats) == 0 {
		return nil, models.ErrNoPlayers
	}
	r := &Round{
		Deck:        common.NewShuffledDeck(),
		Players:     make([]*Player, 0, len(seats)),
		RoundNumber: 1,
	}
	for i, s := range seats {
		if s.Balance <= 0 {
			return nil, models.ErrInvalidBuyIn
		}
		r.Players = append(r.Players, &Player{
			ID:      i + 1,
			Name:    s.Name,
			Balance: s.Balance,
			Outcome: OutcomeNone,
		})
	}
	r.Phase = PhaseBetting
	r.activateSeat(0)
	r.Message = fmt.Sprintf("%s's turn to bet!", r.Players[0].Name)
	return r, nil
}

// PlaceBet records the active player's wager. When the last seat has
// bet, opening hands are dealt, naturals are settled out of turn order,
// and play begins (or skips straight to the dealer if every seat was
// dealt a natural).
func (r *Round) PlaceBet(playerID int, amount int) error {
	if r.Phase != PhaseBetting {
		return models.ErrNotInBettingPhase
	}
	p, err := r.player(playerID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return models.ErrNotYourTurn
	}
	if amount <= 0 || amount > p.Balance {
		return models.ErrInvalidBet
	}
	p.Bet = amount
	p.IsActive = false

	idx := r.seatIndex(playerID)
	if idx+1 < len(r.Players) {
		r.activateSeat(idx + 1)
		r.Message = fmt.Sprintf("%s's turn to bet!", r.Players[idx+1].Name)
		return nil
	}
	return r.deal()
}

// deal gives every seat and the dealer their opening two cards, marks
// dealt naturals finished before turn order begins, and activates the
// first seat still in play.
func (r *Round) deal() error {
	for _, p := range r.Players {
		for i := 0; i < 2; i++ {
			c, err := r.draw()
			if err != nil {
				return err
			}
			p.Hand = append(p.Hand, c)
		}
		p.Total = HandValue(p.Hand)
		p.CanDoubleDown = p.eligibleDoubleDown()
	}
	for i := 0; i < 2; i++ {
		c, err := r.draw()
		if err != nil {
			return err
		}
		r.DealerHand = append(r.DealerHand, c)
	}
	r.DealerTotal = HandValue(r.DealerHand)

	for _, p := range r.Players {
		if IsNatural(p.Hand) {
			p.IsFinished = true
			p.IsActive = false
			p.CanDoubleDown = false
		}
	}

	r.Phase = PhasePlaying
	for i, p := range r.Players {
		if !p.IsFinished {
			r.activateSeat(i)
			r.Message = fmt.Sprintf("%s's turn!", p.Name)
			return nil
		}
	}
	// Every seat opened with a natural: no decisions to make.
	return r.runDealer()
}

// Hit draws one card for the active player. Busting finishes the seat
// and advances the turn; otherwise the player keeps deciding.
func (r *Round) Hit(playerID int) error {
	p, err := r.activePlayer(playerID)
	if err != nil {
		return err
	}
	c, err := r.draw()
	if err != nil {
		return err
	}
	p.Hand = append(p.Hand, c)
	p.Total = HandValue(p.Hand)
	p.CanDoubleDown = false
	if p.Total > 21 {
		p.IsFinished = true
		p.IsActive = false
		r.Message = fmt.Sprintf("%s busts!", p.Name)
		return r.advanceTurn()
	}
	r.Message = fmt.Sprintf("%s drew %s.", p.Name, c)
	return nil
}

// Stand finishes the active player's seat without drawing.
func (r *Round) Stand(playerID int) error {
	p, err := r.activePlayer(playerID)
	if err != nil {
		return err
	}
	p.IsFinished = true
	p.IsActive = false
	r.Message = fmt.Sprintf("%s stands.", p.Name)
	return r.advanceTurn()
}

// DoubleDown doubles the bet, draws exactly one card, and finishes the
// seat regardless of the result.
func (r *Round) DoubleDown(playerID int) error {
	p, err := r.activePlayer(playerID)
	if err != nil {
		return err
	}
	if !p.CanDoubleDown || !p.eligibleDoubleDown() {
		return models.ErrCannotDoubleDown
	}
	p.Bet *= 2
	c, err := r.draw()
	if err != nil {
		return err
	}
	p.Hand = append(p.Hand, c)
	p.Total = HandValue(p.Hand)
	p.CanDoubleDown = false
	p.IsFinished = true
	p.IsActive = false
	if p.Total > 21 {
		r.Message = fmt.Sprintf("%s doubles down and busts!", p.Name)
	} else {
		r.Message = fmt.Sprintf("%s doubles down.", p.Name)
	}
	return r.advanceTurn()
}

// NextRound starts a fresh round carrying balances over, or ends the
// session when no seat has chips left.
func (r *Round) NextRound() error {
	if r.Phase != PhaseResults {
		return models.ErrNotInResultsPhase
	}
	broke := true
	for _, p := range r.Players {
		if p.Balance > 0 {
			broke = false
			break
		}
	}
	if broke {
		r.Phase = PhaseFinished
		for _, p := range r.Players {
			p.IsActive = false
		}
		r.CurrentPlayerIndex = len(r.Players)
		r.Message = "Game over! All players are out of money."
		return nil
	}

	r.Deck = common.NewShuffledDeck()
	r.DealerHand = nil
	r.DealerTotal = 0
	for _, p := range r.Players {
		p.resetForRound()
	}
	r.resolved = false
	r.RoundNumber++
	r.Phase = PhaseBetting
	r.activateSeat(0)
	r.Message = fmt.Sprintf("%s's turn to bet!", r.Players[0].Name)
	return nil
}

// advanceTurn activates the lowest-indexed unfinished seat strictly
// after the current one, or hands control to the dealer when none
// remains.
func (r *Round) advanceTurn() error {
	for i := r.CurrentPlayerIndex + 1; i < len(r.Players); i++ {
		if !r.Players[i].IsFinished {
			r.activateSeat(i)
			r.Message = fmt.Sprintf("%s's turn!", r.Players[i].Name)
			return nil
		}
	}
	return r.runDealer()
}

// runDealer plays the dealer hand (hit below 17, stand at 17 or more,
// soft totals included) and resolves payouts. It runs to completion in
// one call; the dealer phase is never observable mid-draw.
func (r *Round) runDealer() error {
	r.Phase = PhaseDealer
	for _, p := range r.Players {
		p.IsActive = false
	}
	r.CurrentPlayerIndex = len(r.Players)
	for HandValue(r.DealerHand) < 17 {
		c, err := r.draw()
		if err != nil {
			return err
		}
		r.DealerHand = append(r.DealerHand, c)
	}
	r.DealerTotal = HandValue(r.DealerHand)
	r.resolve()
	r.Phase = PhaseResults
	return nil
}

// resolve settles every seat against the dealer total. Balances change
// here and nowhere else. Guarded so a round can never pay out twice.
func (r *Round) resolve() {
	if r.resolved {
		return
	}
	r.resolved = true
	dealerBust := r.DealerTotal > 21
	for _, p := range r.Players {
		switch {
		case p.Total > 21:
			p.Outcome = OutcomeLose
			p.Balance -= p.Bet
		case dealerBust || p.Total > r.DealerTotal:
			p.Outcome = OutcomeWin
			if IsNatural(p.Hand) {
				// 3:2 on the dealt two-card 21, rounded down.
				p.Balance += p.Bet * 3 / 2
			} else {
				p.Balance += p.Bet
			}
		case p.Total < r.DealerTotal:
			p.Outcome = OutcomeLose
			p.Balance -= p.Bet
		default:
			p.Outcome = OutcomePush
		}
	}
	r.Message = "Round complete!"
}

func (r *Round) activateSeat(i int) {
	for j, p := range r.Players {
		p.IsActive = j == i
	}
	r.CurrentPlayerIndex = i
}

func (r *Round) player(id int) (*Player, error) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, models.ErrUnknownPlayer
}

func (r *Round) seatIndex(id int) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// activePlayer validates phase and turn for a playing-phase action.
func (r *Round) activePlayer(id int) (*Player, error) {
	if r.Phase != PhasePlaying {
		return nil, models.ErrNotInPlayingPhase
	}
	p, err := r.player(id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, models.ErrNotYourTurn
	}
	if r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) ||
		r.Players[r.CurrentPlayerIndex] != p {
		return nil, fmt.Errorf("%w: index=%d active=%d", models.ErrCorruptTurnIndex, r.CurrentPlayerIndex, id)
	}
	return p, nil
}

func (r *Round) draw() (common.Card, error) {
	deck, c, err := common.Draw(r.Deck)
	if err != nil {
		return common.Card{}, fmt.Errorf("round %d: %w", r.RoundNumber, err)
	}
	r.Deck = deck
	return c, nil
}

// SeatResult is one seat's settled outcome, recorded to history once
// per round.
type SeatResult struct {
	PlayerID int     `json:"player_id"`
	Name     string  `json:"name"`
	Bet      int     `json:"bet"`
	Outcome  Outcome `json:"outcome"`
	Payout   int     `json:"payout"` // net balance change
	Balance  int     `json:"balance"`
	Natural  bool    `json:"natural"`
}

// Results returns per-seat outcomes for a resolved round. ok is false
// until payout resolution has run.
func (r *Round) Results() ([]SeatResult, bool) {
	if !r.resolved {
		return nil, false
	}
	out := make([]SeatResult, 0, len(r.Players))
	for _, p := range r.Players {
		res := SeatResult{
			PlayerID: p.ID,
			Name:     p.Name,
			Bet:      p.Bet,
			Outcome:  p.Outcome,
			Balance:  p.Balance,
			Natural:  IsNatural(p.Hand),
		}
		switch p.Outcome {
		case OutcomeWin:
			if res.Natural {
				res.Payout = p.Bet * 3 / 2
			} else {
				res.Payout = p.Bet
			}
		case OutcomeLose:
			res.Payout = -p.Bet
		}
		out = append(out, res)
	}
	return out, true
}
