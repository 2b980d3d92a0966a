package game

import (
	"math/rand"
	"testing"

	"github.com/minaorangina/fantan/deck"
	utils "github.com/minaorangina/fantan/internal"
	"github.com/stretchr/testify/assert"
)

func TestLegalMoves(t *testing.T) {
	t.Run("opening move only allows 7s", func(t *testing.T) {
		hand := utils.Cards(t, "♥7", "♣5")
		utils.AssertCards(t, LegalMoves(hand, NewTableState(), true), utils.Cards(t, "♥7"))
	})

	t.Run("opening move is all 7s whatever the table holds", func(t *testing.T) {
		tbl := NewTableState().Apply(deck.NewCard(deck.Seven, deck.Spades))
		hand := utils.Cards(t, "♠8", "♦7", "♣7", "♥K")
		utils.AssertCards(t, LegalMoves(hand, tbl, true), utils.Cards(t, "♦7", "♣7"))
	})

	t.Run("only the ends of a run are legal", func(t *testing.T) {
		tbl := NewTableState()
		for _, c := range utils.Cards(t, "♣7", "♣6", "♣8", "♣5", "♣9") {
			tbl = tbl.Apply(c)
		}
		hand := utils.Cards(t, "♣4", "♣10", "♣6")
		utils.AssertCards(t, LegalMoves(hand, tbl, false), utils.Cards(t, "♣4", "♣10"))
	})

	t.Run("a 7 opens a suit with no run", func(t *testing.T) {
		tbl := NewTableState().Apply(deck.NewCard(deck.Seven, deck.Hearts))
		hand := utils.Cards(t, "♦7", "♦8", "♥6", "♥5")
		utils.AssertCards(t, LegalMoves(hand, tbl, false), utils.Cards(t, "♦7", "♥6"))
	})

	t.Run("no legal moves is an empty result", func(t *testing.T) {
		tbl := NewTableState().Apply(deck.NewCard(deck.Seven, deck.Hearts))
		moves := LegalMoves(utils.Cards(t, "♥K", "♥A"), tbl, false)
		assert.NotNil(t, moves)
		assert.Empty(t, moves)
	})

	t.Run("closed ends stay closed", func(t *testing.T) {
		tbl := NewTableState()
		for r := deck.Seven; r <= deck.King; r++ {
			tbl = tbl.Apply(deck.NewCard(r, deck.Hearts))
		}
		hand := utils.Cards(t, "♥A", "♥2", "♥3", "♥4", "♥5", "♥6")
		utils.AssertCards(t, LegalMoves(hand, tbl, false), utils.Cards(t, "♥6"))

		for r := deck.Six; r >= deck.Ace; r-- {
			tbl = tbl.Apply(deck.NewCard(r, deck.Hearts))
		}
		assert.Empty(t, LegalMoves(hand, tbl, false))
	})
}

func TestLegalMovesProperties(t *testing.T) {
	full, _ := deck.Build(4)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		hand := full.Shuffled(rng)[:13]

		sevens := []deck.Card{}
		for _, c := range hand {
			if c.Rank == deck.Seven {
				sevens = append(sevens, c)
			}
		}
		utils.AssertCards(t, LegalMoves(hand, NewTableState(), true), sevens)

		for _, s := range deck.CanonicalOrder {
			tbl := NewTableState().Apply(deck.NewCard(deck.Seven, s))
			for _, c := range LegalMoves(hand, tbl, false) {
				if c.Suit == s {
					assert.Contains(t, []deck.Rank{deck.Six, deck.Eight}, c.Rank)
				} else {
					utils.AssertEqual(t, c.Rank, deck.Seven)
				}
			}
		}

		// same inputs, same answer
		utils.AssertCards(t, LegalMoves(hand, NewTableState(), false), LegalMoves(hand, NewTableState(), false))
	}
}
