package advisor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	utils "github.com/minaorangina/fantan/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gemini-3-flash-preview",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
		"usage": map[string]interface{}{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(b)
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAI(OpenAIOpts{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: time.Second,
		Logger:  zaptest.NewLogger(t),
	})
}

func TestOpenAIAdvise(t *testing.T) {
	t.Run("sends the request and reads the decision", func(t *testing.T) {
		var body string
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, completion(`{"chosenCardId":"♣-7","thinking":"Opening clubs for my 8."}`))
		})

		d, err := o.Advise(context.Background(), someRequest(t))
		require.NoError(t, err)
		utils.AssertEqual(t, d, Decision{CardID: "♣-7", Rationale: "Opening clubs for my 8."})

		utils.AssertEqual(t, gjson.Get(body, "model").String(), "gemini-3-flash-preview")
		utils.AssertEqual(t, gjson.Get(body, "response_format.type").String(), "json_object")
		utils.AssertEqual(t, gjson.Get(body, "messages.0.role").String(), "system")
		assert.Contains(t, gjson.Get(body, "messages.0.content").String(), "[ID: ♣-7]")
		utils.AssertEqual(t, gjson.Get(body, "messages.1.role").String(), "user")
	})

	t.Run("server errors are not retried", func(t *testing.T) {
		calls := 0
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
		})

		_, err := o.Advise(context.Background(), someRequest(t))
		assert.Error(t, err)
		utils.AssertEqual(t, calls, 1)
	})

	t.Run("garbage reply is malformed", func(t *testing.T) {
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, completion("I think I'll play the seven of clubs"))
		})

		_, err := o.Advise(context.Background(), someRequest(t))
		assert.ErrorIs(t, err, ErrMalformedReply)
	})

	t.Run("failures fall back through Choose", func(t *testing.T) {
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		card, rationale := Choose(context.Background(), o, someRequest(t), zaptest.NewLogger(t))
		utils.AssertEqual(t, card.ID(), "♥-6")
		utils.AssertEqual(t, rationale, FallbackRationale)
	})

	t.Run("respects the caller's deadline", func(t *testing.T) {
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		utils.Within(t, time.Second, func() {
			_, err := o.Advise(ctx, someRequest(t))
			assert.Error(t, err)
		})
	})
}
