package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/minaorangina/fantan/deck"
)

// RoundsPerMatch is fixed: the second round swaps the first round's hands
const RoundsPerMatch = 2

var (
	ErrNilMatch        = errors.New("match is nil")
	ErrRoundInProgress = errors.New("round is still in progress")
	ErrRoundOver       = errors.New("round is over")
	ErrMatchOver       = errors.New("match is over; start a new match")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrIllegalMove     = errors.New("illegal move")
	ErrMustPlay        = errors.New("a legal move is available")
	ErrNoSuchPlayer    = errors.New("player is not in this match")
)

// MatchConfig holds everything needed to deal a match
type MatchConfig struct {
	SuitCount int
	SuitOrder []deck.Suit
	Human     Seat
	Opponent  Seat
	// Rand drives the shuffle. Nil means a time-seeded source.
	Rand *rand.Rand
}

// Match is a two-round game. Round 2 deals each slot the hand the other slot
// started round 1 with.
type Match struct {
	seats    [2]Seat
	order    []deck.Suit
	initial  [2][]deck.Card
	roundNum int
	round    *Round
	results  []RoundResult
}

// NewMatch builds and shuffles a fresh deck, deals it alternately with the
// even-indexed cards going to the human, and starts round 1.
func NewMatch(cfg MatchConfig) (*Match, error) {
	order := cfg.SuitOrder
	if len(order) == 0 {
		order = deck.CanonicalOrder
	}

	d, err := deck.NewBuilder(order).Build(cfg.SuitCount)
	if err != nil {
		return nil, fmt.Errorf("building deck: %w", err)
	}

	hands := d.Shuffled(cfg.Rand).DealAlternate(2)

	return NewMatchWithHands(cfg.Human, cfg.Opponent, [2][]deck.Card{hands[0], hands[1]}, order), nil
}

// NewMatchWithHands starts a match from an already dealt pair of hands
func NewMatchWithHands(human, opponent Seat, hands [2][]deck.Card, order []deck.Suit) *Match {
	m := &Match{
		seats: [2]Seat{human, opponent},
		order: order,
		initial: [2][]deck.Card{
			append([]deck.Card{}, hands[0]...),
			append([]deck.Card{}, hands[1]...),
		},
		results: []RoundResult{},
	}
	m.startRound(1)
	return m
}

func (m *Match) startRound(n int) {
	hands := m.initial
	if n == 2 {
		hands = [2][]deck.Card{m.initial[1], m.initial[0]}
	}
	m.roundNum = n
	m.round = NewRound(m.seats, [2][]deck.Card{
		append([]deck.Card{}, hands[0]...),
		append([]deck.Card{}, hands[1]...),
	}, m.order)
}

// NextRound moves on once the current round is over. After the last round it
// returns ErrMatchOver; continuing requires a new match.
func (m *Match) NextRound() error {
	if m == nil {
		return ErrNilMatch
	}
	if !m.round.Over() {
		return ErrRoundInProgress
	}
	if m.roundNum >= RoundsPerMatch {
		return ErrMatchOver
	}

	m.record()
	m.startRound(m.roundNum + 1)
	return nil
}

// Round is the round in play, or the last one played
func (m *Match) Round() *Round {
	return m.round
}

// RoundNumber is 1 or 2
func (m *Match) RoundNumber() int {
	return m.roundNum
}

// Seats returns the two seats in slot order
func (m *Match) Seats() [2]Seat {
	return m.seats
}

// SeatIndex finds the slot for a player id
func (m *Match) SeatIndex(playerID string) (int, bool) {
	for i, s := range m.seats {
		if s.ID == playerID {
			return i, true
		}
	}
	return -1, false
}

// Over reports whether the final round has finished
func (m *Match) Over() bool {
	return m.roundNum == RoundsPerMatch && m.round.Over()
}

// Results returns the results of every finished round, in order. The round in
// play counts as soon as it is over, however it was driven.
func (m *Match) Results() []RoundResult {
	results := append([]RoundResult{}, m.results...)
	if m.round.Over() && len(results) < m.roundNum {
		results = append(results, *m.round.Result())
	}
	return results
}

// Play validates and applies a play by playerID
func (m *Match) Play(playerID string, card deck.Card, rationale string) error {
	idx, err := m.turnHolder(playerID)
	if err != nil {
		return err
	}
	if !IsLegal(card, m.round.Table(), m.round.Opening()) || !deck.Contains(m.round.players[idx].Hand, card) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, card.Short())
	}

	m.round.Play(idx, card, rationale)
	return nil
}

// Skip passes playerID's turn, allowed only when they have no legal move
func (m *Match) Skip(playerID, rationale string) error {
	idx, err := m.turnHolder(playerID)
	if err != nil {
		return err
	}
	if len(m.round.LegalMoves()) > 0 {
		return ErrMustPlay
	}

	m.round.Skip(idx, rationale)
	return nil
}

func (m *Match) turnHolder(playerID string) (int, error) {
	if m == nil {
		return -1, ErrNilMatch
	}
	idx, ok := m.SeatIndex(playerID)
	if !ok {
		return -1, ErrNoSuchPlayer
	}
	if m.round.Over() {
		if m.Over() {
			return -1, ErrMatchOver
		}
		return -1, ErrRoundOver
	}
	if idx != m.round.Current() {
		return -1, ErrNotYourTurn
	}
	return idx, nil
}

func (m *Match) record() {
	if m.round.Over() && len(m.results) < m.roundNum {
		m.results = append(m.results, *m.round.Result())
	}
}
