package blackjack

import "blackjack-table-go/internal/game/common"

// HandValue totals a hand with soft-ace reduction: aces start at 11 and
// are recounted as 1, one at a time, while the total exceeds 21. The
// result can still exceed 21 (bust) once no soft aces remain.
func HandValue(hand []common.Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		total += c.BlackjackValue()
		if c.Rank == common.Ace {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsNatural reports a two-card 21. Hands that reach 21 by hitting or
// doubling have three or more cards and never qualify.
func IsNatural(hand []common.Card) bool {
	return len(hand) == 2 && HandValue(hand) == 21
}
