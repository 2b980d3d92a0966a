package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"github.com/minaorangina/fantan/advisor"
	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/engine"
	"github.com/minaorangina/fantan/game"
	"github.com/minaorangina/fantan/players"
	"github.com/minaorangina/fantan/store"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type NewGameReq struct {
	Name  string `json:"name"`
	Suits int    `json:"suits,omitempty"`
	Model string `json:"model,omitempty"`
}

type NewGameRes struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Opponent string `json:"opponent"`
}

type HealthRes struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

// ServerOpts is used to construct a GameServer
type ServerOpts struct {
	Store  store.GameStore
	Logger *zap.Logger
	// Engine is the base configuration for every new game.
	// A request may override the suit count.
	Engine engine.Config
	// Models are the AI opponents a player can pick from. The first is the default.
	Models  []advisor.Model
	Advisor advisor.Advisor
	// Origins allowed by CORS. Empty allows any origin.
	Origins []string
}

// GameServer is a game server
type GameServer struct {
	store   store.GameStore
	logger  *zap.Logger
	cfg     engine.Config
	models  []advisor.Model
	advisor advisor.Advisor
	ctx     context.Context
	cancel  context.CancelFunc
	handler http.Handler
	// conns tracks running websocket players
	conns sync.WaitGroup
	http.Server
}

// NewGameID returns a short code that is easy to share
func NewGameID() string {
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 6)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// NewServer creates a new GameServer
func NewServer(opts ServerOpts) *GameServer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gameStore := opts.Store
	if gameStore == nil {
		gameStore = store.NewInMemoryGameStore()
	}
	models := opts.Models
	if len(models) == 0 {
		models = advisor.DefaultModels
	}
	adv := opts.Advisor
	if adv == nil {
		adv = advisor.FirstLegal{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &GameServer{
		store:   gameStore,
		logger:  logger,
		cfg:     opts.Engine,
		models:  models,
		advisor: adv,
		ctx:     ctx,
		cancel:  cancel,
	}

	router := http.NewServeMux()

	router.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.HandleNewGame(w, r)
	})

	router.HandleFunc("/game/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.HandleGetGame(w, r)
		case http.MethodDelete:
			s.HandleDeleteGame(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.HandleWS(w, r)
	})

	router.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, s.models)
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthRes{Status: "ok", Games: len(s.store.Games())})
	})

	corsOpts := []handlers.CORSOption{
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	}
	if len(opts.Origins) > 0 {
		corsOpts = append(corsOpts, handlers.AllowedOrigins(opts.Origins))
	}

	var handler http.Handler = router
	handler = handlers.CORS(corsOpts...)(handler)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(handler)
	handler = handlers.CombinedLoggingHandler(zap.NewStdLog(logger).Writer(), handler)
	s.handler = handler
	s.Server.Handler = handler

	return s
}

func (s *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops every running game and waits for their connections to close
func (s *GameServer) Close() {
	for _, id := range s.store.Games() {
		ge := s.store.FindGame(id)
		if ge == nil || s.store.RemoveGame(id) != nil {
			continue
		}
		<-ge.Done()
	}
	s.cancel()
	s.conns.Wait()
}

func (s *GameServer) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var data NewGameReq
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeParseError(err, w, s.logger)
		return
	}

	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing player name")
		return
	}

	model := s.models[0]
	if data.Model != "" {
		m, ok := advisor.FindModel(s.models, data.Model)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown model %q", data.Model))
			return
		}
		model = m
	}

	cfg := s.cfg
	if data.Suits != 0 {
		cfg.SuitCount = data.Suits
	}

	playerID := players.NewID()
	gameID := NewGameID()
	ge, err := engine.NewGameEngine(engine.GameEngineOpts{
		GameID:    gameID,
		CreatorID: playerID,
		Config:    cfg,
		Human:     game.Seat{ID: playerID, Name: data.Name, IsHuman: true},
		Opponent:  game.Seat{ID: players.NewID(), Name: model.Name, AIModel: model.ID},
		Advisor:   s.advisor,
		Logger:    s.logger,
	})
	if errors.Is(err, deck.ErrSuitCount) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("could not create game", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create game")
		return
	}

	ctx, stop := context.WithCancel(s.ctx)
	if err := s.store.AddGame(ge, stop); err != nil {
		stop()
		s.logger.Error("could not store game", zap.String("game_id", gameID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create game")
		return
	}
	go ge.Listen(ctx)

	s.logger.Info("game created",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.String("model", model.ID),
	)

	writeJSON(w, http.StatusCreated, NewGameRes{
		GameID:   gameID,
		PlayerID: playerID,
		Name:     data.Name,
		Opponent: model.Name,
	})
}

// HandleGetGame returns the player's current view of a game
func (s *GameServer) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	ge, playerID, ok := s.findPlayerGame(w, r, strings.TrimPrefix(r.URL.Path, "/game/"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ge.Snapshot(playerID))
}

// HandleDeleteGame stops a game. Only its creator may do this.
func (s *GameServer) HandleDeleteGame(w http.ResponseWriter, r *http.Request) {
	ge, playerID, ok := s.findPlayerGame(w, r, strings.TrimPrefix(r.URL.Path, "/game/"))
	if !ok {
		return
	}
	if playerID != ge.CreatorID() {
		writeError(w, http.StatusForbidden, "only the creator can end a game")
		return
	}
	if err := s.store.RemoveGame(ge.ID()); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *GameServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	ge, playerID, ok := s.findPlayerGame(w, r, r.URL.Query().Get("game_id"))
	if !ok {
		return
	}

	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.Warn("could not upgrade to websocket", zap.Error(err))
		return
	}

	p := newWSPlayer(playerID, rawConn, ge, s.logger)
	s.conns.Add(1)
	go func() {
		defer s.conns.Done()
		p.run()
	}()
}

func (s *GameServer) findPlayerGame(w http.ResponseWriter, r *http.Request, gameID string) (*engine.GameEngine, string, bool) {
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "missing game ID")
		return nil, "", false
	}
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "missing player ID")
		return nil, "", false
	}

	ge := s.store.FindGame(gameID)
	if ge == nil {
		writeError(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return nil, "", false
	}
	if !isMember(ge, playerID) {
		writeError(w, http.StatusUnauthorized, "unknown player ID")
		return nil, "", false
	}
	return ge, playerID, true
}

func isMember(ge *engine.GameEngine, playerID string) bool {
	if playerID == ge.CreatorID() {
		return true
	}
	for _, seat := range ge.Seats() {
		if seat.ID == playerID {
			return true
		}
	}
	return false
}

func unknownGameIDMsg(gameID string) string {
	return fmt.Sprintf("unknown game ID %q", gameID)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bytes)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

func writeParseError(err error, w http.ResponseWriter, logger *zap.Logger) {
	if err == io.EOF {
		writeError(w, http.StatusBadRequest, "Missing body")
		return
	}
	logger.Info("bad request body", zap.Error(err))
	writeError(w, http.StatusBadRequest, "Malformed body")
}

type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("recovered from panic", zap.String("panic", fmt.Sprint(v...)))
}

// ListenAndServe serves on addr until ctx is done
func (s *GameServer) ListenAndServe(ctx context.Context, addr string) error {
	s.Server.Addr = addr
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.Server.Shutdown(shutdownCtx)
		s.Close()
		return err
	}
}
