package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minaorangina/fantan/engine"
	"github.com/minaorangina/fantan/protocol"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// wsPlayer connects one websocket to one seat of a game.
// Snapshots go out, InboundMessages come in.
type wsPlayer struct {
	id     string
	conn   *websocket.Conn
	engine *engine.GameEngine
	logger *zap.Logger
}

func newWSPlayer(id string, conn *websocket.Conn, ge *engine.GameEngine, logger *zap.Logger) *wsPlayer {
	return &wsPlayer{
		id:     id,
		conn:   conn,
		engine: ge,
		logger: logger.With(zap.String("game_id", ge.ID()), zap.String("player_id", id)),
	}
}

// run returns once both pumps have stopped
func (p *wsPlayer) run() {
	updates, unsubscribe := p.engine.Subscribe(p.id)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.writePump(updates, done)
	}()

	p.readPump()
	close(done)
	unsubscribe()
	wg.Wait()
}

// readPump forwards messages until the connection fails
func (p *wsPlayer) readPump() {
	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.InboundMessage
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Info("websocket closed", zap.Error(err))
			}
			return
		}
		// a connection can only speak for its own seat
		msg.PlayerID = p.id
		if err := p.engine.Receive(msg); errors.Is(err, engine.ErrGameStopped) {
			return
		}
	}
}

func (p *wsPlayer) writePump(updates <-chan protocol.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-updates:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the game has stopped
				p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "game over"))
				return
			}
			if err := p.conn.WriteJSON(snap); err != nil {
				p.logger.Info("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
