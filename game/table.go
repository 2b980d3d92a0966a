package game

import (
	"encoding/json"
	"fmt"

	"github.com/minaorangina/fantan/deck"
)

// SuitRun is the contiguous run of ranks played in one suit.
// Played is sorted ascending and always equals Min..Max.
type SuitRun struct {
	Min    deck.Rank   `json:"min"`
	Max    deck.Rank   `json:"max"`
	Played []deck.Rank `json:"cards"`
}

// Extends reports whether rank can be added to either end of the run
func (r SuitRun) Extends(rank deck.Rank) bool {
	return rank == r.Min-1 || rank == r.Max+1
}

// TableState maps each suit whose 7 has been played to its run.
// The zero value is an empty table. TableState is never modified in place;
// Apply returns a new value.
type TableState struct {
	runs map[deck.Suit]SuitRun
}

// NewTableState returns an empty table
func NewTableState() TableState {
	return TableState{}
}

// Run returns the run for suit, if its 7 has been played
func (t TableState) Run(suit deck.Suit) (SuitRun, bool) {
	r, ok := t.runs[suit]
	if !ok {
		return SuitRun{}, false
	}
	r.Played = append([]deck.Rank{}, r.Played...)
	return r, true
}

// Len is the number of suits with a run
func (t TableState) Len() int {
	return len(t.runs)
}

// Suits returns the suits with a run, in canonical order
func (t TableState) Suits() []deck.Suit {
	suits := []deck.Suit{}
	for _, s := range deck.CanonicalOrder {
		if _, ok := t.runs[s]; ok {
			suits = append(suits, s)
		}
	}
	return suits
}

// Apply returns the table with card added. The card must be a 7 of a suit
// with no run, or one rank beyond either end of its suit's run; anything else
// is a caller bug and panics.
func (t TableState) Apply(card deck.Card) TableState {
	next := make(map[deck.Suit]SuitRun, len(t.runs)+1)
	for s, r := range t.runs {
		next[s] = r
	}

	run, ok := t.runs[card.Suit]
	switch {
	case !ok && card.Rank == deck.Seven:
		next[card.Suit] = SuitRun{Min: card.Rank, Max: card.Rank, Played: []deck.Rank{card.Rank}}

	case ok && card.Rank == run.Min-1:
		played := make([]deck.Rank, 0, len(run.Played)+1)
		played = append(played, card.Rank)
		played = append(played, run.Played...)
		next[card.Suit] = SuitRun{Min: card.Rank, Max: run.Max, Played: played}

	case ok && card.Rank == run.Max+1:
		played := make([]deck.Rank, 0, len(run.Played)+1)
		played = append(played, run.Played...)
		played = append(played, card.Rank)
		next[card.Suit] = SuitRun{Min: run.Min, Max: card.Rank, Played: played}

	default:
		panic(fmt.Sprintf("illegal play %s on table %v", card.Short(), t))
	}

	return TableState{runs: next}
}

func (t TableState) String() string {
	s := "{"
	for i, suit := range t.Suits() {
		r := t.runs[suit]
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%s-%s", suit.Symbol(), r.Min.Label(), r.Max.Label())
	}
	return s + "}"
}

func (t TableState) MarshalJSON() ([]byte, error) {
	if t.runs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.runs)
}

func (t *TableState) UnmarshalJSON(b []byte) error {
	runs := map[deck.Suit]SuitRun{}
	if err := json.Unmarshal(b, &runs); err != nil {
		return err
	}
	t.runs = runs
	return nil
}
