package advisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/game"
	"go.uber.org/zap"
)

// FallbackRationale is logged when an advisor cannot be used
const FallbackRationale = "Thinking system offline. Playing a valid card."

var (
	ErrEmptyReply     = errors.New("advisor returned an empty reply")
	ErrMalformedReply = errors.New("advisor reply is not valid JSON")
	ErrNotLegal       = errors.New("advisor chose a card outside the legal moves")
)

// Request is everything an advisor may look at when choosing a card
type Request struct {
	Model      string
	PlayerName string
	Hand       []deck.Card
	Legal      []deck.Card
	Table      game.TableState
	History    []game.LogEntry
}

// Decision is an advisor's answer: the id of a card in Request.Legal and a
// free-text explanation.
type Decision struct {
	CardID    string `json:"chosenCardId"`
	Rationale string `json:"thinking"`
}

// Advisor picks one of the legal moves. It never decides what is legal.
type Advisor interface {
	Advise(ctx context.Context, req Request) (Decision, error)
}

// Func adapts a function to the Advisor interface
type Func func(ctx context.Context, req Request) (Decision, error)

func (f Func) Advise(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}

// Choose asks a for a move and checks it against req.Legal. On any failure
// it plays req.Legal[0] with FallbackRationale. A single attempt is made.
// req.Legal must not be empty; a player with no legal move skips.
func Choose(ctx context.Context, a Advisor, req Request, logger *zap.Logger) (deck.Card, string) {
	if len(req.Legal) == 0 {
		panic("advisor.Choose called with no legal moves")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fallback := func(err error) (deck.Card, string) {
		logger.Warn("advisor failed, playing first legal move",
			zap.String("model", req.Model),
			zap.String("player", req.PlayerName),
			zap.String("card", req.Legal[0].ID()),
			zap.Error(err),
		)
		return req.Legal[0], FallbackRationale
	}

	if a == nil {
		return fallback(errors.New("no advisor configured"))
	}

	decision, err := a.Advise(ctx, req)
	if err != nil {
		return fallback(err)
	}

	for _, c := range req.Legal {
		if c.ID() == decision.CardID {
			logger.Debug("advisor chose card",
				zap.String("model", req.Model),
				zap.String("card", c.ID()),
			)
			return c, decision.Rationale
		}
	}

	return fallback(fmt.Errorf("%w: %q", ErrNotLegal, decision.CardID))
}

// FirstLegal always plays the first legal card. It needs no network.
type FirstLegal struct{}

func (FirstLegal) Advise(_ context.Context, req Request) (Decision, error) {
	if len(req.Legal) == 0 {
		return Decision{}, ErrEmptyReply
	}
	return Decision{
		CardID:    req.Legal[0].ID(),
		Rationale: fmt.Sprintf("Playing %s, the first card I can.", req.Legal[0]),
	}, nil
}
