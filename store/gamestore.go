package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/minaorangina/fantan/engine"
)

var (
	ErrUnknownGameID   = errors.New("unknown game ID")
	ErrDuplicateGameID = errors.New("game ID already exists")
)

type GameStore interface {
	FindGame(gameID string) *engine.GameEngine
	AddGame(game *engine.GameEngine, stop func()) error
	RemoveGame(gameID string) error
	Games() []string
}

type storedGame struct {
	engine *engine.GameEngine
	stop   func()
}

// InMemoryGameStore maps game id to game engine
type InMemoryGameStore struct {
	mu    sync.RWMutex
	games map[string]storedGame
}

// NewInMemoryGameStore constructs an InMemoryGameStore
func NewInMemoryGameStore() *InMemoryGameStore {
	return &InMemoryGameStore{
		games: map[string]storedGame{},
	}
}

func (s *InMemoryGameStore) FindGame(ID string) *engine.GameEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.games[ID]
	if !ok {
		return nil
	}
	return game.engine
}

// AddGame registers a running game. stop, if given, is called when the game is
// removed.
func (s *InMemoryGameStore) AddGame(game *engine.GameEngine, stop func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[game.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGameID, game.ID())
	}

	s.games[game.ID()] = storedGame{engine: game, stop: stop}
	return nil
}

// RemoveGame stops and forgets a game
func (s *InMemoryGameStore) RemoveGame(ID string) error {
	s.mu.Lock()
	game, ok := s.games[ID]
	delete(s.games, ID)
	s.mu.Unlock()

	if !ok {
		return ErrUnknownGameID
	}
	if game.stop != nil {
		game.stop()
	}
	return nil
}

// Games lists the stored game ids in order
func (s *InMemoryGameStore) Games() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
