package common

import "testing"

func TestBlackjackValue(t *testing.T) {
	cases := []struct {
		card string
		want int
	}{
		{"AS", 11},
		{"2H", 2},
		{"9D", 9},
		{"10C", 10},
		{"JS", 10},
		{"QH", 10},
		{"KD", 10},
	}
	for _, tc := range cases {
		c, err := ParseCard(tc.card)
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", tc.card, err)
		}
		if got := c.BlackjackValue(); got != tc.want {
			t.Errorf("BlackjackValue(%s) = %d, want %d", tc.card, got, tc.want)
		}
	}
}

func TestParseCardRoundTrip(t *testing.T) {
	for _, c := range NewStandardDeck() {
		parsed, err := ParseCard(c.String())
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", c.String(), err)
		}
		if parsed != c {
			t.Errorf("round trip %s: got %v, want %v", c.String(), parsed, c)
		}
	}
}

func TestParseCardRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "A", "1S", "14H", "AX", "0D", "QQ"} {
		if _, err := ParseCard(s); err == nil {
			t.Errorf("ParseCard(%q) succeeded, want error", s)
		}
	}
}
