package protocol

import (
	"fmt"

	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/game"
)

type Player struct {
	PlayerID string `json:"playerID"`
	Name     string `json:"name"`
	IsHuman  bool   `json:"isHuman"`
	AIModel  string `json:"aiModel,omitempty"`
}

// InboundMessage is a message from Player to GameEngine
type InboundMessage struct {
	PlayerID  string `json:"playerID"`
	Command   Cmd    `json:"command"`
	CardID    string `json:"cardID,omitempty"`
	Rationale string `json:"rationale,omitempty"`
}

// Seat is one player's view of a seat at the table.
// Hand is only filled in for the viewer's own seat.
type Seat struct {
	Player
	Hand      []deck.Card `json:"hand,omitempty"`
	CardCount int         `json:"cardCount"`
}

// Snapshot is a read-only picture of a game for one viewer
type Snapshot struct {
	GameID      string             `json:"gameID"`
	ViewerID    string             `json:"viewerID"`
	Command     Cmd                `json:"command"`
	Round       int                `json:"round"`
	CurrentTurn Player             `json:"currentTurn"`
	Seats       []Seat             `json:"seats"`
	Moves       []deck.Card        `json:"moves"`
	Table       game.TableState    `json:"table"`
	Log         []game.LogEntry    `json:"log"`
	Results     []game.RoundResult `json:"results"`
	Thinking    bool               `json:"thinking"`
	RoundOver   bool               `json:"roundOver"`
	MatchOver   bool               `json:"matchOver"`
	Error       string             `json:"error,omitempty"`
}

// Mine returns the viewer's seat
func (s Snapshot) Mine() (Seat, bool) {
	for _, seat := range s.Seats {
		if seat.PlayerID == s.ViewerID {
			return seat, true
		}
	}
	return Seat{}, false
}

// MyTurn reports whether the viewer is the turn holder
func (s Snapshot) MyTurn() bool {
	return !s.RoundOver && s.CurrentTurn.PlayerID != "" && s.CurrentTurn.PlayerID == s.ViewerID
}

type Cmd int

const (
	Null Cmd = iota
	StartMatch
	Play
	Skip
	NextRound
	Abandon
	Update
	Thinking
	RoundOver
	MatchOver
	Error
)

var CmdNames = map[Cmd]string{
	Null:       "Null",
	StartMatch: "StartMatch",
	Play:       "Play",
	Skip:       "Skip",
	NextRound:  "NextRound",
	Abandon:    "Abandon",
	Update:     "Update",
	Thinking:   "Thinking",
	RoundOver:  "RoundOver",
	MatchOver:  "MatchOver",
	Error:      "Error",
}

var NameToCmd = map[string]Cmd{
	"Null":       Null,
	"StartMatch": StartMatch,
	"Play":       Play,
	"Skip":       Skip,
	"NextRound":  NextRound,
	"Abandon":    Abandon,
	"Update":     Update,
	"Thinking":   Thinking,
	"RoundOver":  RoundOver,
	"MatchOver":  MatchOver,
	"Error":      Error,
}

func (c Cmd) String() string {
	return CmdNames[c]
}

func (c Cmd) MarshalText() ([]byte, error) {
	name, ok := CmdNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown command %d", int(c))
	}
	return []byte(name), nil
}

func (c *Cmd) UnmarshalText(b []byte) error {
	cmd, ok := NameToCmd[string(b)]
	if !ok {
		return fmt.Errorf("unknown command %q", string(b))
	}
	*c = cmd
	return nil
}
