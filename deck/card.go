package deck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidCardID = errors.New("invalid card id")

// Rank represents a rank in a deck of cards, Ace low
type Rank int

var rankNames = []string{"", "Ace", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten", "Jack", "Queen", "King"}

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// Label is the short face label: A, 2..10, J, Q, K
func (r Rank) Label() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return strconv.Itoa(int(r))
}

// Suit represents a suit in a deck of cards
type Suit int

const (
	Hearts Suit = iota
	Clubs
	Diamonds
	Spades
)

var (
	suitNames   = []string{"Hearts", "Clubs", "Diamonds", "Spades"}
	suitSymbols = []string{"♥", "♣", "♦", "♠"}
)

// CanonicalOrder is the fixed order suits are drawn from when building a deck
// and sorting a hand.
var CanonicalOrder = []Suit{Hearts, Clubs, Diamonds, Spades}

func (s Suit) Valid() bool {
	return s >= Hearts && s <= Spades
}

func (s Suit) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Symbol returns the suit symbol, e.g. ♥
func (s Suit) Symbol() string {
	if !s.Valid() {
		return "?"
	}
	return suitSymbols[s]
}

// MarshalText encodes a suit as its symbol so it can key JSON objects.
func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", s.String())
	}
	return []byte(s.Symbol()), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	parsed, ok := parseSuit(string(b))
	if !ok {
		return fmt.Errorf("unknown suit %q", string(b))
	}
	*s = parsed
	return nil
}

func parseSuit(str string) (Suit, bool) {
	for i, sym := range suitSymbols {
		if str == sym || strings.EqualFold(str, suitNames[i]) {
			return Suit(i), true
		}
	}
	return 0, false
}

// Card is a playing card. Two cards are the same card if suit and rank match.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// NewCard constructs a card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Suit: suit, Rank: rank}
}

// ID is the card's identity, e.g. "♥-7"
func (c Card) ID() string {
	return fmt.Sprintf("%s-%d", c.Suit.Symbol(), int(c.Rank))
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Short is the compact display form, e.g. ♠K
func (c Card) Short() string {
	return c.Suit.Symbol() + c.Rank.Label()
}

// ParseID is the inverse of Card.ID
func ParseID(id string) (Card, error) {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardID, id)
	}

	suit, ok := parseSuit(id[:idx])
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardID, id)
	}

	n, err := strconv.Atoi(id[idx+1:])
	if err != nil || !Rank(n).Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardID, id)
	}

	return NewCard(Rank(n), suit), nil
}
