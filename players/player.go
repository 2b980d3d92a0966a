package players

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minaorangina/fantan/protocol"
	uuid "github.com/satori/go.uuid"
)

// NewID constructs a player ID
func NewID() string {
	return uuid.NewV4().String()
}

type conn struct {
	In  io.Reader
	Out io.Writer
}

// CLIPlayer is a human playing through a terminal
type CLIPlayer struct {
	id     string
	name   string
	Conn   *conn
	reader *bufio.Reader
}

// NewCLIPlayer constructs a player reading commands from in and writing the
// game to out
func NewCLIPlayer(id, name string, in io.Reader, out io.Writer) *CLIPlayer {
	return &CLIPlayer{
		id:     id,
		name:   name,
		Conn:   &conn{In: in, Out: out},
		reader: bufio.NewReader(in),
	}
}

func (p *CLIPlayer) ID() string {
	return p.id
}

func (p *CLIPlayer) Name() string {
	return p.name
}

// Run renders every snapshot and answers the ones that need a decision,
// until the snapshots stop, ctx is done, the input ends or the player quits.
func (p *CLIPlayer) Run(ctx context.Context, updates <-chan protocol.Snapshot, send func(protocol.InboundMessage)) error {
	var lastShown, lastPrompted string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case snap, ok := <-updates:
			if !ok {
				return nil
			}

			key := promptKey(snap)
			if snap.Command == protocol.Error {
				SendText(p.Conn.Out, errorText, snap.Error)
				lastPrompted = ""
			} else if key != lastShown {
				SendText(p.Conn.Out, buildSnapshotText(snap))
			}
			lastShown = key

			if !needsInput(snap) || key == lastPrompted {
				continue
			}
			lastPrompted = key

			msg, err := p.Respond(snap)
			if errors.Is(err, errQuit) {
				send(msg)
				SendText(p.Conn.Out, goodbyeText)
				return nil
			}
			if err != nil {
				return err
			}
			send(msg)
		}
	}
}

// Respond reads the player's answer to snap
func (p *CLIPlayer) Respond(snap protocol.Snapshot) (protocol.InboundMessage, error) {
	msg := protocol.InboundMessage{PlayerID: p.id}

	switch {
	case snap.RoundOver || snap.Round == 0:
		if snap.MatchOver || snap.Round == 0 {
			SendText(p.Conn.Out, newMatchPromptText)
		} else {
			SendText(p.Conn.Out, nextRoundPromptText)
		}
		choice, err := readChoice(p.reader, p.Conn.Out, 0, "n")
		if err != nil {
			return msg, err
		}
		switch choice {
		case choiceQuit:
			msg.Command = protocol.Abandon
			return msg, errQuit
		case choiceNext:
			msg.Command = protocol.NextRound
			if snap.MatchOver || snap.Round == 0 {
				msg.Command = protocol.StartMatch
			}
			return msg, nil
		}
		return msg, fmt.Errorf("unexpected choice %d", choice)

	default:
		SendText(p.Conn.Out, buildMovesText(snap.Moves))
		allowed := ""
		if len(snap.Moves) == 0 {
			allowed = "p"
		}
		choice, err := readChoice(p.reader, p.Conn.Out, len(snap.Moves), allowed)
		if err != nil {
			return msg, err
		}
		switch choice {
		case choiceQuit:
			msg.Command = protocol.Abandon
			return msg, errQuit
		case choicePass:
			msg.Command = protocol.Skip
			return msg, nil
		}
		msg.Command = protocol.Play
		msg.CardID = snap.Moves[choice].ID()
		return msg, nil
	}
}

func needsInput(snap protocol.Snapshot) bool {
	return snap.Round == 0 || snap.RoundOver || snap.MyTurn()
}

// promptKey identifies a decision point so the same one is not asked twice
func promptKey(snap protocol.Snapshot) string {
	return fmt.Sprintf("%d/%d/%t/%t/%t", snap.Round, len(snap.Log), snap.Thinking, snap.RoundOver, snap.MatchOver)
}
