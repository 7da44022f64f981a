package common

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// ErrDeckExhausted signals a draw from an empty deck. A single 52-card
// deck covers the worst-case draws of one blackjack round, so hitting
// this mid-round means the round state is corrupt. Callers must treat it
// as an internal failure, not a game-rule rejection.
var ErrDeckExhausted = errors.New("deck exhausted")

func NewStandardDeck() []Card {
	deck := make([]Card, 0, 52)
	suits := []Suit{Spades, Hearts, Diamonds, Clubs}
	for _, s := range suits {
		for r := 1; r <= 13; r++ {
			deck = append(deck, Card{Rank: Rank(r), Suit: s})
		}
	}
	return deck
}

func Shuffle(cards []Card) {
	// Crypto-secure Fisher–Yates shuffle.
	// If crypto/rand fails, we fall back to a time-seeded shuffle as a last resort.
	for i := len(cards) - 1; i > 0; i-- {
		nBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			fallbackShuffle(cards)
			return
		}
		j := int(nBig.Int64())
		cards[i], cards[j] = cards[j], cards[i]
	}
}

func fallbackShuffle(cards []Card) {
	// Minimal fallback (predictable) used only if crypto/rand fails.
	seed := time.Now().UnixNano()
	for i := len(cards) - 1; i > 0; i-- {
		seed = (seed*6364136223846793005 + 1) & 0x7fffffffffffffff
		j := int(seed % int64(i+1))
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// NewShuffledDeck builds the full 52-card set and shuffles it in place.
func NewShuffledDeck() []Card {
	deck := NewStandardDeck()
	Shuffle(deck)
	return deck
}

// Draw removes one card from the tail of the deck.
func Draw(deck []Card) ([]Card, Card, error) {
	if len(deck) == 0 {
		return deck, Card{}, ErrDeckExhausted
	}
	c := deck[len(deck)-1]
	return deck[:len(deck)-1], c, nil
}
