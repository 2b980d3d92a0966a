package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/minaorangina/fantan/advisor"
	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/game"
	"github.com/minaorangina/fantan/protocol"
	"go.uber.org/zap"
)

// PlayState represents the state of the current game
// idle -> no game play (pre game and after abandoning)
// inProgress -> a match is being played
// paused -> an AI player is thinking; no turns are accepted
// finished -> the last round of the match is over
type PlayState int

func (gps PlayState) String() string {
	if gps == 0 {
		return "idle"
	} else if gps == 1 {
		return "inProgress"
	} else if gps == 2 {
		return "paused"
	} else if gps == 3 {
		return "finished"
	}
	return ""
}

const (
	Idle PlayState = iota
	InProgress
	Paused
	Finished
)

const subscriberBuffer = 16

var (
	ErrNoMatch       = errors.New("no match in progress")
	ErrPaused        = errors.New("waiting for the opponent to move")
	ErrUnknownPlayer = errors.New("player is not part of this game")
	ErrUnknownCmd    = errors.New("unknown command")
	ErrGameStopped   = errors.New("game has stopped")
)

// Config is the per-game rule and pacing configuration
type Config struct {
	SuitCount int
	SuitOrder []deck.Suit
	// ThinkDelay is the minimum time an AI player takes to move
	ThinkDelay time.Duration
	// AdvisorTimeout bounds a single advisor call. Zero means no bound.
	AdvisorTimeout time.Duration
}

// GameEngineOpts is used to construct a GameEngine
type GameEngineOpts struct {
	GameID    string
	CreatorID string
	Config    Config
	Human     game.Seat
	Opponent  game.Seat
	Advisor   advisor.Advisor
	Logger    *zap.Logger
	Rand      *rand.Rand
	InboundCh chan protocol.InboundMessage
	// MatchFn deals a new match. Defaults to game.NewMatch.
	MatchFn func(game.MatchConfig) (*game.Match, error)
}

type aiDecision struct {
	generation uint64
	playerID   string
	skip       bool
	card       deck.Card
	rationale  string
}

// GameEngine runs one Fan-Tan game. All state changes happen on the Listen
// goroutine; readers take snapshots.
type GameEngine struct {
	id        string
	creatorID string
	cfg       Config
	seats     [2]game.Seat
	advisor   advisor.Advisor
	logger    *zap.Logger
	rng       *rand.Rand
	matchFn   func(game.MatchConfig) (*game.Match, error)

	inboundCh  chan protocol.InboundMessage
	decisionCh chan aiDecision
	done       chan struct{}

	mu          sync.RWMutex
	playState   PlayState
	match       *game.Match
	generation  uint64
	ctx         context.Context
	cancelAI    context.CancelFunc
	subscribers map[string][]chan protocol.Snapshot
	stopped     bool
}

// NewGameEngine constructs a new GameEngine. Call Listen to run it.
func NewGameEngine(opts GameEngineOpts) (*GameEngine, error) {
	if opts.Human.ID == "" || opts.Opponent.ID == "" {
		return nil, fmt.Errorf("%w: both seats need an id", ErrUnknownPlayer)
	}
	if opts.Human.ID == opts.Opponent.ID {
		return nil, fmt.Errorf("%w: seats share id %q", ErrUnknownPlayer, opts.Human.ID)
	}
	if opts.Config.SuitCount == 0 {
		opts.Config.SuitCount = len(deck.CanonicalOrder)
	}
	if opts.Config.SuitCount < 1 || opts.Config.SuitCount > len(deck.CanonicalOrder) {
		return nil, deck.ErrSuitCount
	}

	inboundCh := opts.InboundCh
	if inboundCh == nil {
		inboundCh = make(chan protocol.InboundMessage, subscriberBuffer)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	matchFn := opts.MatchFn
	if matchFn == nil {
		matchFn = game.NewMatch
	}

	return &GameEngine{
		id:          opts.GameID,
		creatorID:   opts.CreatorID,
		cfg:         opts.Config,
		seats:       [2]game.Seat{opts.Human, opts.Opponent},
		advisor:     opts.Advisor,
		logger:      logger.With(zap.String("game_id", opts.GameID)),
		rng:         opts.Rand,
		matchFn:     matchFn,
		inboundCh:   inboundCh,
		decisionCh:  make(chan aiDecision),
		done:        make(chan struct{}),
		ctx:         context.Background(),
		subscribers: map[string][]chan protocol.Snapshot{},
	}, nil
}

func (ge *GameEngine) ID() string {
	return ge.id
}

func (ge *GameEngine) CreatorID() string {
	return ge.creatorID
}

// Seats returns the two seats in slot order
func (ge *GameEngine) Seats() [2]game.Seat {
	return ge.seats
}

func (ge *GameEngine) PlayState() PlayState {
	ge.mu.RLock()
	defer ge.mu.RUnlock()
	return ge.playState
}

// Receive forwards InboundMessages from Players for processing. Once Listen
// has returned it fails with ErrGameStopped instead of blocking.
func (ge *GameEngine) Receive(msg protocol.InboundMessage) error {
	select {
	case <-ge.done:
		return ErrGameStopped
	default:
	}

	select {
	case ge.inboundCh <- msg:
		return nil
	case <-ge.done:
		return ErrGameStopped
	}
}

// Done is closed when Listen returns
func (ge *GameEngine) Done() <-chan struct{} {
	return ge.done
}

// Listen processes player commands and AI decisions one at a time until ctx
// is done.
func (ge *GameEngine) Listen(ctx context.Context) {
	ge.mu.Lock()
	ge.ctx = ctx
	ge.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			ge.mu.Lock()
			ge.stopAI()
			ge.closeSubscribers()
			ge.mu.Unlock()
			close(ge.done)
			return

		case msg := <-ge.inboundCh:
			ge.mu.Lock()
			if err := ge.handle(msg); err != nil {
				ge.logger.Info("rejected command",
					zap.String("player_id", msg.PlayerID),
					zap.Stringer("command", msg.Command),
					zap.Error(err),
				)
				ge.sendError(msg.PlayerID, err)
			} else {
				ge.broadcast()
			}
			ge.mu.Unlock()

		case d := <-ge.decisionCh:
			ge.mu.Lock()
			if ge.applyDecision(d) {
				ge.broadcast()
			}
			ge.mu.Unlock()
		}
	}
}

func (ge *GameEngine) knows(playerID string) bool {
	return playerID == ge.creatorID || playerID == ge.seats[0].ID || playerID == ge.seats[1].ID
}

// handle runs with mu held
func (ge *GameEngine) handle(msg protocol.InboundMessage) error {
	if !ge.knows(msg.PlayerID) {
		return ErrUnknownPlayer
	}

	switch msg.Command {
	case protocol.StartMatch:
		return ge.startMatch()

	case protocol.Abandon:
		ge.abandon()
		return nil

	case protocol.NextRound:
		if ge.match == nil {
			return ErrNoMatch
		}
		if err := ge.match.NextRound(); err != nil {
			return err
		}
		ge.logger.Info("round started", zap.Int("round", ge.match.RoundNumber()))
		ge.afterTurn()
		return nil

	case protocol.Play, protocol.Skip:
		if ge.match == nil {
			return ErrNoMatch
		}
		if ge.playState == Paused {
			return ErrPaused
		}

		var err error
		if msg.Command == protocol.Skip {
			err = ge.match.Skip(msg.PlayerID, msg.Rationale)
		} else {
			var card deck.Card
			card, err = deck.ParseID(msg.CardID)
			if err == nil {
				err = ge.match.Play(msg.PlayerID, card, msg.Rationale)
			}
		}
		if err != nil {
			return err
		}
		ge.afterTurn()
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnknownCmd, msg.Command)
}

func (ge *GameEngine) startMatch() error {
	ge.stopAI()

	m, err := ge.matchFn(game.MatchConfig{
		SuitCount: ge.cfg.SuitCount,
		SuitOrder: ge.cfg.SuitOrder,
		Human:     ge.seats[0],
		Opponent:  ge.seats[1],
		Rand:      ge.rng,
	})
	if err != nil {
		return err
	}

	ge.match = m
	ge.playState = InProgress
	ge.logger.Info("match started", zap.Int("suits", ge.cfg.SuitCount))
	ge.afterTurn()
	return nil
}

func (ge *GameEngine) abandon() {
	ge.stopAI()
	ge.match = nil
	ge.playState = Idle
	ge.logger.Info("match abandoned")
}

// stopAI discards any decision still being computed
func (ge *GameEngine) stopAI() {
	ge.generation++
	if ge.cancelAI != nil {
		ge.cancelAI()
		ge.cancelAI = nil
	}
	if ge.playState == Paused {
		ge.playState = InProgress
	}
}

// afterTurn settles the play state and hands the turn to an AI if needed
func (ge *GameEngine) afterTurn() {
	round := ge.match.Round()

	if round.Over() {
		res := round.Result()
		ge.logger.Info("round over",
			zap.Int("round", ge.match.RoundNumber()),
			zap.String("winner", res.WinnerID),
			zap.Int("human_remaining", res.HumanRemaining),
			zap.Int("ai_remaining", res.AIRemaining),
		)
		if ge.match.Over() {
			ge.playState = Finished
		}
		return
	}

	ge.playState = InProgress
	current := round.Player(round.Current())
	if current.IsHuman {
		return
	}
	ge.scheduleAI(current)
}

func (ge *GameEngine) scheduleAI(p game.Player) {
	ge.generation++
	gen := ge.generation

	ctx, cancel := context.WithCancel(ge.ctx)
	ge.cancelAI = cancel
	ge.playState = Paused

	round := ge.match.Round()
	req := advisor.Request{
		Model:      p.AIModel,
		PlayerName: p.Name,
		Hand:       p.Hand,
		Legal:      round.LegalMoves(),
		Table:      round.Table(),
		History:    round.Log(),
	}

	go ge.think(ctx, gen, p.ID, req)
}

// think runs off the Listen goroutine and only touches its arguments
func (ge *GameEngine) think(ctx context.Context, gen uint64, playerID string, req advisor.Request) {
	select {
	case <-time.After(ge.cfg.ThinkDelay):
	case <-ctx.Done():
		return
	}

	d := aiDecision{generation: gen, playerID: playerID}
	if len(req.Legal) == 0 {
		d.skip = true
	} else {
		actx, cancel := ctx, context.CancelFunc(func() {})
		if ge.cfg.AdvisorTimeout > 0 {
			actx, cancel = context.WithTimeout(ctx, ge.cfg.AdvisorTimeout)
		}
		d.card, d.rationale = advisor.Choose(actx, ge.advisor, req, ge.logger)
		cancel()
	}

	select {
	case ge.decisionCh <- d:
	case <-ctx.Done():
	}
}

// applyDecision runs with mu held and reports whether anything changed
func (ge *GameEngine) applyDecision(d aiDecision) bool {
	if d.generation != ge.generation || ge.playState != Paused || ge.match == nil {
		ge.logger.Debug("discarding stale decision", zap.String("player_id", d.playerID))
		return false
	}

	if ge.cancelAI != nil {
		ge.cancelAI()
		ge.cancelAI = nil
	}
	ge.playState = InProgress

	var err error
	if d.skip {
		err = ge.match.Skip(d.playerID, "")
	} else {
		err = ge.match.Play(d.playerID, d.card, d.rationale)
	}
	if err != nil {
		// the advisor result is always one of the legal moves
		ge.logger.Error("applying AI decision", zap.String("player_id", d.playerID), zap.Error(err))
		return true
	}

	ge.afterTurn()
	return true
}

// Subscribe returns a channel of snapshots for viewerID, starting with the
// current one, and a function to stop receiving them. Slow subscribers miss
// intermediate snapshots rather than blocking the game.
func (ge *GameEngine) Subscribe(viewerID string) (<-chan protocol.Snapshot, func()) {
	ch := make(chan protocol.Snapshot, subscriberBuffer)

	ge.mu.Lock()
	ch <- ge.snapshot(viewerID)
	if ge.stopped {
		close(ch)
		ge.mu.Unlock()
		return ch, func() {}
	}
	ge.subscribers[viewerID] = append(ge.subscribers[viewerID], ch)
	ge.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			ge.mu.Lock()
			defer ge.mu.Unlock()

			// closeSubscribers may already have closed ch
			subs := ge.subscribers[viewerID]
			for i, c := range subs {
				if c == ch {
					ge.subscribers[viewerID] = append(subs[:i], subs[i+1:]...)
					close(ch)
					break
				}
			}
			if len(ge.subscribers[viewerID]) == 0 {
				delete(ge.subscribers, viewerID)
			}
		})
	}
}

// Snapshot returns the current view of the game for viewerID
func (ge *GameEngine) Snapshot(viewerID string) protocol.Snapshot {
	ge.mu.RLock()
	defer ge.mu.RUnlock()
	return ge.snapshot(viewerID)
}

// closeSubscribers ends every subscription. It runs with mu held.
func (ge *GameEngine) closeSubscribers() {
	ge.stopped = true
	for viewerID, subs := range ge.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(ge.subscribers, viewerID)
	}
}

func (ge *GameEngine) broadcast() {
	for viewerID := range ge.subscribers {
		ge.send(viewerID, ge.snapshot(viewerID))
	}
}

func (ge *GameEngine) sendError(viewerID string, err error) {
	snap := ge.snapshot(viewerID)
	snap.Command = protocol.Error
	snap.Error = err.Error()
	ge.send(viewerID, snap)
}

func (ge *GameEngine) send(viewerID string, snap protocol.Snapshot) {
	for _, ch := range ge.subscribers[viewerID] {
		select {
		case ch <- snap:
		default:
			ge.logger.Warn("subscriber channel full", zap.String("viewer_id", viewerID))
		}
	}
}
