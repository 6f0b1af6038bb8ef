package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIGateway(t *testing.T, handler http.HandlerFunc) *OpenAIGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gateway, err := NewOpenAIGateway(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Model:   "google/gemini-2.5-flash",
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return gateway
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "google/gemini-2.5-flash",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"type": "error", "message": message},
	})
}

func TestOpenAIGatewaySendsConversationAndReturnsText(t *testing.T) {
	var captured map[string]any
	gateway := newTestOpenAIGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeCompletion(w, "  {\"ok\": true}  ")
	})

	seed := 42
	req := NewChatRequest("check-plagiarism", "system text", "user text")
	req.Temperature = 0
	req.Seed = &seed

	resp, err := gateway.Complete(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, `{"ok": true}`, resp.Content)
	require.Equal(t, 65, resp.Usage.TotalTokens)

	require.Equal(t, "google/gemini-2.5-flash", captured["model"])
	require.EqualValues(t, 42, captured["seed"])
	temperature, ok := captured["temperature"].(float64)
	require.True(t, ok, "temperature must be sent explicitly")
	require.Less(t, temperature, 0.0001)

	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "user text", messages[1].(map[string]any)["content"])
}

func TestOpenAIGatewayMapsRateLimit(t *testing.T) {
	calls := 0
	gateway := newTestOpenAIGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
	})

	_, err := gateway.Complete(context.Background(), NewChatRequest("generate-quiz", "s", "u"))
	var rl *ErrRateLimit
	require.True(t, errors.As(err, &rl), "got %T", err)
	require.Equal(t, 1, calls, "gateway must not retry")
}

func TestOpenAIGatewayMapsPaymentRequired(t *testing.T) {
	gateway := newTestOpenAIGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusPaymentRequired, "Payment required")
	})

	_, err := gateway.Complete(context.Background(), NewChatRequest("generate-assignments", "s", "u"))
	var pr *ErrPaymentRequired
	require.True(t, errors.As(err, &pr), "got %T", err)
}

func TestOpenAIGatewayMapsOtherFailures(t *testing.T) {
	gateway := newTestOpenAIGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "boom")
	})

	_, err := gateway.Complete(context.Background(), NewChatRequest("evaluate-submission", "s", "u"))
	var unavailable *ErrProviderUnavailable
	require.True(t, errors.As(err, &unavailable), "got %T", err)
	require.Equal(t, http.StatusInternalServerError, unavailable.StatusCode)
}

func TestOpenAIGatewayMapsNonJSONErrorBodies(t *testing.T) {
	gateway := newTestOpenAIGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := gateway.Complete(context.Background(), NewChatRequest("learning-path", "s", "u"))
	var unavailable *ErrProviderUnavailable
	require.True(t, errors.As(err, &unavailable), "got %T", err)
}

func TestOpenAIGatewayTransportFailure(t *testing.T) {
	gateway, err := NewOpenAIGateway(OpenAIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1/v1", Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = gateway.Complete(context.Background(), NewChatRequest("generate-quiz", "s", "u"))
	var unavailable *ErrProviderUnavailable
	require.True(t, errors.As(err, &unavailable), "got %T", err)
	require.Zero(t, unavailable.StatusCode)
}

func TestNewOpenAIGatewayRequiresKey(t *testing.T) {
	_, err := NewOpenAIGateway(OpenAIConfig{})
	require.Error(t, err)
}
