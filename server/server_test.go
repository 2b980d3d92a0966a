package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minaorangina/fantan/advisor"
	"github.com/minaorangina/fantan/engine"
	utils "github.com/minaorangina/fantan/internal"
	"github.com/minaorangina/fantan/protocol"
	"github.com/minaorangina/fantan/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*GameServer, *store.InMemoryGameStore) {
	t.Helper()

	gameStore := store.NewInMemoryGameStore()
	s := NewServer(ServerOpts{
		Store:   gameStore,
		Logger:  zaptest.NewLogger(t),
		Engine:  engine.Config{SuitCount: 1},
		Advisor: advisor.FirstLegal{},
	})
	t.Cleanup(s.Close)
	return s, gameStore
}

func mustMakeJson(t *testing.T, input interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(input)
	utils.AssertNoError(t, err)

	return data
}

func newCreateGameRequest(data []byte) *http.Request {
	request, _ := http.NewRequest(http.MethodPost, "/new", bytes.NewBuffer(data))
	return request
}

func createGame(t *testing.T, s *GameServer, req NewGameReq) NewGameRes {
	t.Helper()

	response := httptest.NewRecorder()
	s.ServeHTTP(response, newCreateGameRequest(mustMakeJson(t, req)))
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	var res NewGameRes
	require.NoError(t, json.NewDecoder(response.Body).Decode(&res))
	return res
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("got status %d, want %d", got, want)
	}
}

func TestServerHealth(t *testing.T) {
	s, _ := newTestServer(t)
	createGame(t, s, NewGameReq{Name: "Ada"})

	response := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodGet, "/health", nil)
	s.ServeHTTP(response, request)

	assertStatus(t, response.Code, http.StatusOK)
	var res HealthRes
	require.NoError(t, json.NewDecoder(response.Body).Decode(&res))
	utils.AssertEqual(t, res, HealthRes{Status: "ok", Games: 1})
}

func TestServerModels(t *testing.T) {
	s, _ := newTestServer(t)

	response := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodGet, "/models", nil)
	s.ServeHTTP(response, request)

	assertStatus(t, response.Code, http.StatusOK)
	var models []advisor.Model
	require.NoError(t, json.NewDecoder(response.Body).Decode(&models))
	utils.AssertDeepEqual(t, models, advisor.DefaultModels)
}

func TestServerPOSTNewGame(t *testing.T) {
	t.Run("succeeds and returns expected data", func(t *testing.T) {
		s, gameStore := newTestServer(t)

		res := createGame(t, s, NewGameReq{Name: "Elton", Model: "gemini-3-pro-preview"})
		utils.AssertEqual(t, res.Name, "Elton")
		utils.AssertEqual(t, res.Opponent, "Gemini 3 Pro")
		utils.AssertEqual(t, len(res.GameID), 6)
		utils.AssertTrue(t, res.PlayerID != "")

		ge := gameStore.FindGame(res.GameID)
		require.NotNil(t, ge)
		utils.AssertEqual(t, ge.CreatorID(), res.PlayerID)
		seats := ge.Seats()
		utils.AssertTrue(t, seats[0].IsHuman)
		utils.AssertEqual(t, seats[1].AIModel, "gemini-3-pro-preview")
	})

	t.Run("defaults to the first model", func(t *testing.T) {
		s, _ := newTestServer(t)
		res := createGame(t, s, NewGameReq{Name: "Elton"})
		utils.AssertEqual(t, res.Opponent, advisor.DefaultModels[0].Name)
	})

	cases := []struct {
		name string
		body string
	}{
		{"missing body", ""},
		{"malformed body", "{"},
		{"missing name", `{"name":"  "}`},
		{"unknown model", `{"name":"Elton","model":"nope"}`},
		{"too many suits", `{"name":"Elton","suits":5}`},
	}
	for _, c := range cases {
		t.Run("returns 400 for "+c.name, func(t *testing.T) {
			s, gameStore := newTestServer(t)

			response := httptest.NewRecorder()
			s.ServeHTTP(response, newCreateGameRequest([]byte(c.body)))

			assertStatus(t, response.Code, http.StatusBadRequest)
			assert.Empty(t, gameStore.Games())
		})
	}

	t.Run("does not match on GET /new", func(t *testing.T) {
		s, _ := newTestServer(t)

		response := httptest.NewRecorder()
		request, _ := http.NewRequest(http.MethodGet, "/new", nil)
		s.ServeHTTP(response, request)

		assertStatus(t, response.Code, http.StatusNotFound)
	})
}

func TestServerGETGame(t *testing.T) {
	s, _ := newTestServer(t)
	res := createGame(t, s, NewGameReq{Name: "Ada"})

	t.Run("returns the player's snapshot", func(t *testing.T) {
		response := httptest.NewRecorder()
		request, _ := http.NewRequest(http.MethodGet, "/game/"+res.GameID+"?player_id="+res.PlayerID, nil)
		s.ServeHTTP(response, request)

		assertStatus(t, response.Code, http.StatusOK)
		var snap protocol.Snapshot
		require.NoError(t, json.NewDecoder(response.Body).Decode(&snap))
		utils.AssertEqual(t, snap.GameID, res.GameID)
		utils.AssertEqual(t, snap.ViewerID, res.PlayerID)
		utils.AssertEqual(t, snap.Round, 0)
		require.Len(t, snap.Seats, 2)
		utils.AssertEqual(t, snap.Seats[0].Name, "Ada")
	})

	cases := []struct {
		name string
		path string
		want int
	}{
		{"missing player", "/game/" + res.GameID, http.StatusBadRequest},
		{"missing game", "/game/?player_id=" + res.PlayerID, http.StatusBadRequest},
		{"unknown game", "/game/ZZZZZZZ?player_id=" + res.PlayerID, http.StatusNotFound},
		{"stranger", "/game/" + res.GameID + "?player_id=someone", http.StatusUnauthorized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			response := httptest.NewRecorder()
			request, _ := http.NewRequest(http.MethodGet, c.path, nil)
			s.ServeHTTP(response, request)
			assertStatus(t, response.Code, c.want)
		})
	}
}

func TestServerDELETEGame(t *testing.T) {
	s, gameStore := newTestServer(t)
	res := createGame(t, s, NewGameReq{Name: "Ada"})
	seats := gameStore.FindGame(res.GameID).Seats()

	response := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodDelete, "/game/"+res.GameID+"?player_id="+seats[1].ID, nil)
	s.ServeHTTP(response, request)
	assertStatus(t, response.Code, http.StatusForbidden)

	response = httptest.NewRecorder()
	request, _ = http.NewRequest(http.MethodDelete, "/game/"+res.GameID+"?player_id="+res.PlayerID, nil)
	s.ServeHTTP(response, request)
	assertStatus(t, response.Code, http.StatusNoContent)
	assert.Nil(t, gameStore.FindGame(res.GameID))
}

func TestServerCORS(t *testing.T) {
	s, _ := newTestServer(t)

	response := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodGet, "/health", nil)
	request.Header.Set("Origin", "http://localhost:3000")
	s.ServeHTTP(response, request)

	assertStatus(t, response.Code, http.StatusOK)
	utils.AssertEqual(t, response.Header().Get("Access-Control-Allow-Origin"), "*")
}

func readSnapshot(t *testing.T, conn *websocket.Conn, cond func(protocol.Snapshot) bool) protocol.Snapshot {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var snap protocol.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		if cond(snap) {
			return snap
		}
	}
}

func TestServerWS(t *testing.T) {
	t.Run("rejects strangers before upgrading", func(t *testing.T) {
		s, _ := newTestServer(t)
		res := createGame(t, s, NewGameReq{Name: "Ada"})
		server := httptest.NewServer(s)
		defer server.Close()

		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?game_id=" + res.GameID + "&player_id=someone"
		_, response, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		assertStatus(t, response.StatusCode, http.StatusUnauthorized)
	})

	t.Run("plays a match over the socket", func(t *testing.T) {
		s, _ := newTestServer(t)
		res := createGame(t, s, NewGameReq{Name: "Ada"})
		server := httptest.NewServer(s)
		defer server.Close()

		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?game_id=" + res.GameID + "&player_id=" + res.PlayerID
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		first := readSnapshot(t, conn, func(protocol.Snapshot) bool { return true })
		utils.AssertEqual(t, first.Round, 0)

		// the player id is taken from the connection, not the message
		require.NoError(t, conn.WriteJSON(protocol.InboundMessage{PlayerID: "forged", Command: protocol.StartMatch}))

		utils.Within(t, 5*time.Second, func() {
			for {
				snap := readSnapshot(t, conn, func(snap protocol.Snapshot) bool {
					return snap.Round == 1 && (snap.MyTurn() && !snap.Thinking || snap.RoundOver)
				})
				if snap.RoundOver {
					require.Len(t, snap.Results, 1)
					return
				}

				msg := protocol.InboundMessage{Command: protocol.Skip}
				if len(snap.Moves) > 0 {
					msg = protocol.InboundMessage{Command: protocol.Play, CardID: snap.Moves[0].ID()}
				}
				require.NoError(t, conn.WriteJSON(msg))
			}
		})
	})

	t.Run("closes the socket when the game is deleted", func(t *testing.T) {
		s, gameStore := newTestServer(t)
		res := createGame(t, s, NewGameReq{Name: "Ada"})
		server := httptest.NewServer(s)
		defer server.Close()

		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?game_id=" + res.GameID + "&player_id=" + res.PlayerID
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		readSnapshot(t, conn, func(protocol.Snapshot) bool { return true })

		response := httptest.NewRecorder()
		request, _ := http.NewRequest(http.MethodDelete, "/game/"+res.GameID+"?player_id="+res.PlayerID, nil)
		s.ServeHTTP(response, request)
		assertStatus(t, response.Code, http.StatusNoContent)
		assert.Nil(t, gameStore.FindGame(res.GameID))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			var snap protocol.Snapshot
			err := conn.ReadJSON(&snap)
			if err == nil {
				continue
			}
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "want a close frame, got %v", err)
			break
		}

		// both pumps of the connection have returned
		utils.Within(t, 2*time.Second, s.conns.Wait)
	})
}
