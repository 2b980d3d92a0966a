package game

import "github.com/minaorangina/fantan/deck"

// IsLegal reports whether card may be played onto table.
// The opening move of a round must be a 7, whatever the table holds.
func IsLegal(card deck.Card, table TableState, opening bool) bool {
	if opening {
		return card.Rank == deck.Seven
	}

	run, ok := table.runs[card.Suit]
	if !ok {
		// a 7 opens a fresh suit line
		return card.Rank == deck.Seven
	}
	return run.Extends(card.Rank)
}

// LegalMoves returns the cards in hand that may be played, in hand order.
// An empty result means the player must skip.
func LegalMoves(hand []deck.Card, table TableState, opening bool) []deck.Card {
	moves := []deck.Card{}
	for _, c := range hand {
		if IsLegal(c, table, opening) {
			moves = append(moves, c)
		}
	}
	return moves
}
