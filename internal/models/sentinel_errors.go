package models

import "errors"

// Rule rejections. These never mutate round state and are safe to echo
// to clients.
var (
	ErrInvalidJSON        = errors.New("invalid json")
	ErrNoPlayers          = errors.New("no players")
	ErrInvalidBuyIn       = errors.New("invalid buy-in")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNotInBettingPhase  = errors.New("not in betting phase")
	ErrNotInPlayingPhase  = errors.New("not in playing phase")
	ErrNotInResultsPhase  = errors.New("not in results phase")
	ErrInvalidBet         = errors.New("invalid bet amount")
	ErrCannotDoubleDown   = errors.New("cannot double down")
	ErrTableNotFound      = errors.New("table not found")
	ErrInsufficientChips  = errors.New("insufficient chips")
	ErrNotTableOwner      = errors.New("not table owner")
)

// ErrCorruptTurnIndex means the round's turn pointer no longer matches
// any eligible seat. Unreachable under correct rule application; treated
// as an internal failure at the API boundary.
var ErrCorruptTurnIndex = errors.New("corrupt turn index")
