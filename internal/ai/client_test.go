package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func replyWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestGenerateTextSendsPrompt(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		replyWith("Guía de clase")(w, r)
	})

	text, err := client.GenerateText(context.Background(), "sistema", "usuario")
	require.NoError(t, err)
	assert.Equal(t, "Guía de clase", text)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "usuario", got.Messages[1].Content)
	assert.Nil(t, got.ResponseFormat)
}

func TestGenerateJSON(t *testing.T) {
	client := newTestClient(t, replyWith("```json\n{\"objetivos\": [\"Sumar fracciones\"]}\n```"))

	var out struct {
		Objetivos []string `json:"objetivos"`
	}
	require.NoError(t, client.GenerateJSON(context.Background(), "s", "u", &out))
	assert.Equal(t, []string{"Sumar fracciones"}, out.Objetivos)
}

func TestGenerateJSONMalformed(t *testing.T) {
	client := newTestClient(t, replyWith("no es json"))

	var out map[string]any
	err := client.GenerateJSON(context.Background(), "s", "u", &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedJSON)
}

func TestGenerateJSONRawKeepsReply(t *testing.T) {
	reply := `{"evaluacion":{"tipo":"formativa"},"adaptaciones":["dislexia"]}`
	client := newTestClient(t, replyWith("```json\n"+reply+"\n```"))

	var raw json.RawMessage
	require.NoError(t, client.GenerateJSON(context.Background(), "s", "u", &raw))
	assert.JSONEq(t, reply, string(raw))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{name: "rate limit", status: http.StatusTooManyRequests, check: func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrRateLimited)
		}},
		{name: "quota", status: http.StatusPaymentRequired, check: func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrQuotaExhausted)
		}},
		{name: "generic", status: http.StatusBadGateway, check: func(t *testing.T, err error) {
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusBadGateway, se.StatusCode)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"x"}`))
			})
			_, err := client.GenerateText(context.Background(), "s", "u")
			tt.check(t, err)
		})
	}
}

func TestEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})
	_, err := client.GenerateText(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONObject("texto {\"a\":1} fin"))
	assert.Equal(t, "sin llaves", ExtractJSONObject("  sin llaves "))
}
