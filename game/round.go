package game

import (
	"fmt"

	"github.com/minaorangina/fantan/deck"
)

const (
	DefaultPlayRationale = "Strategic move."
	DefaultSkipRationale = "No legal moves possible. Skip turn."
)

// roundState represents where a round is in its lifecycle
// awaitingTurn -> the current player must play or skip
// terminal -> a hand has emptied; no more turns are accepted
type roundState int

const (
	awaitingTurn roundState = iota
	terminal
)

func (s roundState) String() string {
	if s == terminal {
		return "terminal"
	}
	return "awaitingTurn"
}

// Action is what a player did on their turn
type Action string

const (
	ActionPlay Action = "play"
	ActionSkip Action = "skip"
)

// Seat describes who sits in one of the two player slots
type Seat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHuman bool   `json:"isHuman"`
	AIModel string `json:"aiModel,omitempty"`
}

// Player is a seat with the cards it currently holds
type Player struct {
	Seat
	Hand []deck.Card `json:"hand"`
}

// LogEntry is one turn in the round's audit trail
type LogEntry struct {
	PlayerID   string     `json:"playerId"`
	PlayerName string     `json:"playerName"`
	Action     Action     `json:"action"`
	Card       *deck.Card `json:"card,omitempty"`
	Rationale  string     `json:"rationale,omitempty"`
}

// RoundResult is the outcome of a finished round.
// HumanRemaining counts slot 0's cards and AIRemaining slot 1's.
type RoundResult struct {
	WinnerID       string         `json:"winnerId"`
	HumanRemaining int            `json:"humanCardsRemaining"`
	AIRemaining    int            `json:"aiCardsRemaining"`
	Remaining      map[string]int `json:"remaining"`
}

// Round runs a single round of Fan-Tan between two players.
// Round is not safe for concurrent use; callers serialise turns.
type Round struct {
	players [2]Player
	order   []deck.Suit
	table   TableState
	current int
	plays   int
	log     []LogEntry
	state   roundState
	result  *RoundResult
}

// NewRound seats the players, sorts their hands for display and hands the
// first turn to whoever holds the 7 of Hearts, or slot 0 if nobody does.
func NewRound(seats [2]Seat, hands [2][]deck.Card, order []deck.Suit) *Round {
	if len(order) == 0 {
		order = deck.CanonicalOrder
	}

	r := &Round{
		order: order,
		table: NewTableState(),
		log:   []LogEntry{},
		state: awaitingTurn,
	}

	sevenOfHearts := deck.NewCard(deck.Seven, deck.Hearts)
	for i := range seats {
		r.players[i] = Player{Seat: seats[i], Hand: deck.SortHand(hands[i], order)}
		if deck.Contains(r.players[i].Hand, sevenOfHearts) {
			r.current = i
		}
	}

	return r
}

// Current is the index of the player whose turn it is
func (r *Round) Current() int {
	return r.current
}

// Opening reports whether no card has been played yet this round
func (r *Round) Opening() bool {
	return r.plays == 0
}

// Over reports whether the round has finished
func (r *Round) Over() bool {
	return r.state == terminal
}

// Table returns the current table
func (r *Round) Table() TableState {
	return r.table
}

// Player returns a copy of the player in slot idx
func (r *Round) Player(idx int) Player {
	p := r.players[idx]
	p.Hand = append([]deck.Card{}, p.Hand...)
	return p
}

// Players returns copies of both players
func (r *Round) Players() [2]Player {
	return [2]Player{r.Player(0), r.Player(1)}
}

// Log returns the entries recorded so far
func (r *Round) Log() []LogEntry {
	return append([]LogEntry{}, r.log...)
}

// Result is nil until the round is over
func (r *Round) Result() *RoundResult {
	return r.result
}

// LegalMoves returns the current player's legal plays
func (r *Round) LegalMoves() []deck.Card {
	return LegalMoves(r.players[r.current].Hand, r.table, r.Opening())
}

// Play puts card from player idx's hand on the table.
// It returns false, changing nothing, when it is not idx's turn or the round
// is over. Playing a card the player does not hold, or one LegalMoves would
// not offer, panics.
func (r *Round) Play(idx int, card deck.Card, rationale string) bool {
	if !r.accepts(idx) {
		return false
	}

	p := &r.players[idx]
	if !deck.Contains(p.Hand, card) {
		panic(fmt.Sprintf("%s does not hold %s", p.Name, card.Short()))
	}
	if !IsLegal(card, r.table, r.Opening()) {
		panic(fmt.Sprintf("illegal play %s on table %v", card.Short(), r.table))
	}

	r.table = r.table.Apply(card)
	p.Hand = deck.Remove(p.Hand, card)
	r.plays++

	if rationale == "" {
		rationale = DefaultPlayRationale
	}
	played := card
	r.log = append(r.log, LogEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Action:     ActionPlay,
		Card:       &played,
		Rationale:  rationale,
	})

	if len(p.Hand) == 0 {
		r.finish(idx)
		return true
	}

	r.advance()
	return true
}

// Skip passes player idx's turn. Whether a skip is warranted is the caller's
// call; see LegalMoves.
func (r *Round) Skip(idx int, rationale string) bool {
	if !r.accepts(idx) {
		return false
	}

	if rationale == "" {
		rationale = DefaultSkipRationale
	}
	p := r.players[idx]
	r.log = append(r.log, LogEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Action:     ActionSkip,
		Rationale:  rationale,
	})

	r.advance()
	return true
}

func (r *Round) accepts(idx int) bool {
	return r.state == awaitingTurn && idx == r.current
}

func (r *Round) advance() {
	r.current = (r.current + 1) % len(r.players)
}

func (r *Round) finish(winner int) {
	r.state = terminal

	remaining := make(map[string]int, len(r.players))
	for _, p := range r.players {
		remaining[p.ID] = len(p.Hand)
	}

	r.result = &RoundResult{
		WinnerID:       r.players[winner].ID,
		HumanRemaining: len(r.players[0].Hand),
		AIRemaining:    len(r.players[1].Hand),
		Remaining:      remaining,
	}
}
