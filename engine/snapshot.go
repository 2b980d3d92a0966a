package engine

import (
	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/game"
	"github.com/minaorangina/fantan/protocol"
)

func seatToPlayer(s game.Seat) protocol.Player {
	return protocol.Player{
		PlayerID: s.ID,
		Name:     s.Name,
		IsHuman:  s.IsHuman,
		AIModel:  s.AIModel,
	}
}

// snapshot runs with mu held (read or write)
func (ge *GameEngine) snapshot(viewerID string) protocol.Snapshot {
	snap := protocol.Snapshot{
		GameID:   ge.id,
		ViewerID: viewerID,
		Command:  protocol.Update,
		Seats:    []protocol.Seat{},
		Moves:    []deck.Card{},
		Table:    game.NewTableState(),
		Log:      []game.LogEntry{},
		Results:  []game.RoundResult{},
	}

	if ge.match == nil {
		for _, s := range ge.seats {
			snap.Seats = append(snap.Seats, protocol.Seat{Player: seatToPlayer(s)})
		}
		return snap
	}

	round := ge.match.Round()
	for _, p := range round.Players() {
		seat := protocol.Seat{Player: seatToPlayer(p.Seat), CardCount: len(p.Hand)}
		if p.ID == viewerID {
			seat.Hand = p.Hand
		}
		snap.Seats = append(snap.Seats, seat)
	}

	current := round.Player(round.Current())
	snap.Round = ge.match.RoundNumber()
	snap.CurrentTurn = seatToPlayer(current.Seat)
	snap.Table = round.Table()
	snap.Log = round.Log()
	snap.Results = ge.match.Results()
	snap.Thinking = ge.playState == Paused
	snap.RoundOver = round.Over()
	snap.MatchOver = ge.match.Over()

	switch {
	case snap.MatchOver:
		snap.Command = protocol.MatchOver
	case snap.RoundOver:
		snap.Command = protocol.RoundOver
	case snap.Thinking:
		snap.Command = protocol.Thinking
	}

	if !snap.RoundOver && !snap.Thinking && current.ID == viewerID {
		snap.Moves = round.LegalMoves()
	}

	return snap
}
