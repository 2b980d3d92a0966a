package deck

import (
	"errors"
	"math/rand"
	"sort"
	"time"
)

const (
	minSuits     = 1
	maxSuits     = 4
	cardsPerSuit = 13
)

var ErrSuitCount = errors.New("suit count must be between 1 and 4")

// Deck represents a deck of cards
type Deck []Card

// Builder builds decks from a fixed suit ordering.
type Builder struct {
	Order []Suit
}

// NewBuilder returns a Builder using order, or CanonicalOrder if order is empty.
func NewBuilder(order []Suit) Builder {
	if len(order) == 0 {
		order = CanonicalOrder
	}
	return Builder{Order: order}
}

// Build creates an unshuffled deck of 13 cards per suit, suit-major and
// rank-ascending. A single-suit deck is always Hearts.
func (b Builder) Build(suitCount int) (Deck, error) {
	if suitCount < minSuits || suitCount > maxSuits || suitCount > len(b.Order) {
		return nil, ErrSuitCount
	}

	suits := b.Order[:suitCount]
	if suitCount == 1 {
		suits = []Suit{Hearts}
	}

	cards := make(Deck, 0, suitCount*cardsPerSuit)
	for _, suit := range suits {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards, nil
}

// Build creates a deck using CanonicalOrder
func Build(suitCount int) (Deck, error) {
	return NewBuilder(nil).Build(suitCount)
}

// Shuffled returns a shuffled copy of the deck. The receiver is not modified.
func (d Deck) Shuffled(rng *rand.Rand) Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	out := make(Deck, len(d))
	copy(out, d)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DealAlternate deals the whole deck into n hands, one card at a time:
// card i goes to hand i%n.
func (d Deck) DealAlternate(n int) [][]Card {
	if n <= 0 {
		return nil
	}
	hands := make([][]Card, n)
	for i := range hands {
		hands[i] = make([]Card, 0, len(d)/n+1)
	}
	for i, c := range d {
		hands[i%n] = append(hands[i%n], c)
	}
	return hands
}

// SortHand returns a copy of cards sorted by suit position in order, then rank.
// Suits missing from order sort last.
func SortHand(cards []Card, order []Suit) []Card {
	if len(order) == 0 {
		order = CanonicalOrder
	}
	pos := map[Suit]int{}
	for i, s := range order {
		pos[s] = i
	}
	position := func(s Suit) int {
		if p, ok := pos[s]; ok {
			return p
		}
		return len(order) + int(s)
	}

	out := append([]Card{}, cards...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := position(out[i].Suit), position(out[j].Suit)
		if pi != pj {
			return pi < pj
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}

// Contains reports whether target is in cards
func Contains(cards []Card, target Card) bool {
	for _, c := range cards {
		if c == target {
			return true
		}
	}
	return false
}

// Remove returns cards without the first occurrence of target
func Remove(cards []Card, target Card) []Card {
	out := make([]Card, 0, len(cards))
	removed := false
	for _, c := range cards {
		if !removed && c == target {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}
