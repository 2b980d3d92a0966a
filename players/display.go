package players

import (
	"fmt"
	"io"
	"strings"

	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/game"
	"github.com/minaorangina/fantan/protocol"
)

const (
	logTail = 6

	errorText           = "\nThat didn't work: %s\n"
	goodbyeText         = "\nThanks for playing!\n"
	newMatchPromptText  = "\nEnter n to start a new match or q to quit: "
	nextRoundPromptText = "\nEnter n for the next round (hands are swapped) or q to quit: "
	noMovesText         = "\nYou have no legal moves. Enter p to pass: "
	movesText           = "\nYour move. Enter the letter of the card to play (q quits):\n\n"
	movePromptText      = "\nCard: "
	retryKeywordText    = "Invalid choice. Please enter one of: %s\n"
	retryRangeText      = "Invalid entry. Please use the letter codes (A-%c) to choose a card\n"
	thinkingText        = "\n%s is thinking...\n"
)

func SendText(w io.Writer, text string, a ...interface{}) {
	fmt.Fprintf(w, text, a...)
}

func buildSnapshotText(snap protocol.Snapshot) string {
	if snap.Round == 0 {
		return "\nWelcome to Fan-Tan! Play your 7s, build the suits up and down, and be the first to empty your hand.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n===== Round %d of %d =====\n", snap.Round, game.RoundsPerMatch)
	b.WriteString(buildTableText(snap.Table))
	b.WriteString(buildLogText(snap.Log))

	for _, seat := range snap.Seats {
		if seat.PlayerID == snap.ViewerID {
			continue
		}
		fmt.Fprintf(&b, "%s holds %d cards\n", seat.Name, seat.CardCount)
	}
	if mine, ok := snap.Mine(); ok {
		fmt.Fprintf(&b, "Your hand: %s\n", shortCards(mine.Hand))
	}

	if snap.Thinking {
		fmt.Fprintf(&b, thinkingText, snap.CurrentTurn.Name)
	}
	if snap.RoundOver && len(snap.Results) > 0 {
		b.WriteString(buildResultsText(snap))
	}

	return b.String()
}

func buildTableText(table game.TableState) string {
	if table.Len() == 0 {
		return "The table is empty\n"
	}

	text := "On the table:\n"
	for _, suit := range table.Suits() {
		run, _ := table.Run(suit)
		cards := make([]deck.Card, 0, len(run.Played))
		for _, r := range run.Played {
			cards = append(cards, deck.NewCard(r, suit))
		}
		text += fmt.Sprintf("  %s %s\n", suit.Symbol(), shortCards(cards))
	}
	return text
}

func buildLogText(log []game.LogEntry) string {
	if len(log) > logTail {
		log = log[len(log)-logTail:]
	}

	text := ""
	for _, e := range log {
		if e.Action == game.ActionPlay && e.Card != nil {
			text += fmt.Sprintf("- %s played %s: %s\n", e.PlayerName, e.Card.Short(), e.Rationale)
		} else {
			text += fmt.Sprintf("- %s passed: %s\n", e.PlayerName, e.Rationale)
		}
	}
	return text
}

func buildResultsText(snap protocol.Snapshot) string {
	names := map[string]string{}
	for _, seat := range snap.Seats {
		names[seat.PlayerID] = seat.Name
	}

	text := "\n"
	for i, res := range snap.Results {
		text += fmt.Sprintf("Round %d: %s wins!", i+1, names[res.WinnerID])
		for _, seat := range snap.Seats {
			if seat.PlayerID != res.WinnerID {
				text += fmt.Sprintf(" %s had %d cards left.", seat.Name, res.Remaining[seat.PlayerID])
			}
		}
		text += "\n"
	}
	if snap.MatchOver {
		text += "The match is over.\n"
	}
	return text
}

func buildMovesText(moves []deck.Card) string {
	if len(moves) == 0 {
		return noMovesText
	}

	text := movesText
	for i, card := range moves {
		text += fmt.Sprintf("%c - %s\n", rune(upperCaseA+i), card.String())
	}
	return text + movePromptText
}

func shortCards(cards []deck.Card) string {
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		parts = append(parts, c.Short())
	}
	return strings.Join(parts, " ")
}
