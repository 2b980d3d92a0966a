package advisor

import (
	"context"
	"os"
	"testing"
	"time"

	utils "github.com/minaorangina/fantan/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpointsScript = `
-- prefer aces and kings, then sevens, then whatever comes first
function choose(hand, legal, tbl, name)
  for _, c in ipairs(legal) do
    if c.rank == 1 or c.rank == 13 then
      return c.id, name .. " clears an end point"
    end
  end
  for _, c in ipairs(legal) do
    if c.rank == 7 then
      return c.id, "opening " .. c.suit
    end
  end
  local hearts = tbl["♥"]
  if hearts ~= nil then
    return legal[1].id, "hearts run to " .. hearts.max
  end
  return legal[1].id, "first"
end
`

func TestScript(t *testing.T) {
	s, err := NewScript("endpoints.lua", endpointsScript)
	require.NoError(t, err)

	t.Run("runs choose with hand, legal and table", func(t *testing.T) {
		d, err := s.Advise(context.Background(), someRequest(t))
		require.NoError(t, err)
		utils.AssertEqual(t, d, Decision{CardID: "♣-7", Rationale: "opening ♣"})
	})

	t.Run("sees player name", func(t *testing.T) {
		req := someRequest(t)
		req.Legal = utils.Cards(t, "♥6", "♥K")
		d, err := s.Advise(context.Background(), req)
		require.NoError(t, err)
		utils.AssertEqual(t, d.CardID, "♥-13")
		utils.AssertEqual(t, d.Rationale, "Gemini 3 Flash clears an end point")
	})

	t.Run("sees the table", func(t *testing.T) {
		req := someRequest(t)
		req.Legal = utils.Cards(t, "♥9")
		d, err := s.Advise(context.Background(), req)
		require.NoError(t, err)
		utils.AssertEqual(t, d.Rationale, "hearts run to 8")
	})
}

func TestScriptErrors(t *testing.T) {
	t.Run("syntax errors are reported at load", func(t *testing.T) {
		_, err := NewScript("bad.lua", "function choose(")
		assert.Error(t, err)
	})

	t.Run("choose must be defined", func(t *testing.T) {
		_, err := NewScript("empty.lua", "x = 1")
		assert.ErrorIs(t, err, ErrNoChooseFunction)
	})

	t.Run("runtime errors are returned", func(t *testing.T) {
		s, err := NewScript("boom.lua", `function choose() error("boom") end`)
		require.NoError(t, err)
		_, err = s.Advise(context.Background(), someRequest(t))
		assert.Error(t, err)
	})

	t.Run("non-string id is malformed", func(t *testing.T) {
		s, err := NewScript("nil.lua", `function choose() return nil end`)
		require.NoError(t, err)
		_, err = s.Advise(context.Background(), someRequest(t))
		assert.ErrorIs(t, err, ErrMalformedReply)
	})

	t.Run("endless scripts stop at the deadline", func(t *testing.T) {
		s, err := NewScript("spin.lua", `function choose() while true do end end`)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		utils.Within(t, time.Second, func() {
			card, rationale := Choose(ctx, s, someRequest(t), nil)
			utils.AssertEqual(t, card.ID(), "♥-6")
			utils.AssertEqual(t, rationale, FallbackRationale)
		})
	})
}

func TestBlockerStrategy(t *testing.T) {
	source, err := os.ReadFile("../strategies/blocker.lua")
	require.NoError(t, err)
	s, err := NewScript("blocker.lua", string(source))
	require.NoError(t, err)

	t.Run("dumps the card furthest from a seven", func(t *testing.T) {
		d, err := s.Advise(context.Background(), someRequest(t))
		require.NoError(t, err)
		utils.AssertEqual(t, d.CardID, "♥-9")
	})

	t.Run("keeps a run it can follow up", func(t *testing.T) {
		req := someRequest(t)
		req.Hand = append(req.Hand, utils.Cards(t, "♥5")...)
		d, err := s.Advise(context.Background(), req)
		require.NoError(t, err)
		utils.AssertEqual(t, d.CardID, "♥-6")
		utils.AssertEqual(t, d.Rationale, "Keeping the ♥ run to myself.")
	})
}
