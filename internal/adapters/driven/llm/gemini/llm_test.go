package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
)

// fastLimit keeps tests from sleeping on the token bucket.
var fastLimit = RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000}

func newTestModel(t *testing.T, handler http.HandlerFunc) *ChatModel {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	model, err := NewChatModel(Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "gemini-test",
		RateLimit: fastLimit,
	})
	require.NoError(t, err)
	return model
}

func candidateResponse(text string) generateResponse {
	var resp generateResponse
	resp.Candidates = []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	}{
		{Content: content{Role: "model", Parts: []part{{Text: text}}}, FinishReason: "STOP"},
	}
	return resp
}

func TestNewChatModel_RequiresAPIKey(t *testing.T) {
	_, err := NewChatModel(Config{})
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest

	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(candidateResponse("La beca cubre el 90% del arancel."))
	})

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "Eres BecaBot."},
		{Role: driven.RoleUser, Content: "¿Qué becas hay?"},
		{Role: driven.RoleAssistant, Content: "Hay varias becas."},
		{Role: driven.RoleUser, Content: "¿Cuánto cubre la de excelencia?"},
	}

	answer, err := model.Chat(context.Background(), messages, driven.ChatOptions{
		Temperature: 0.2,
		MaxTokens:   2048,
	})
	require.NoError(t, err)
	assert.Equal(t, "La beca cubre el 90% del arancel.", answer)

	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.NotNil(t, gotReq.SystemInstruction)
	assert.Equal(t, "Eres BecaBot.", gotReq.SystemInstruction.Parts[0].Text)

	require.Len(t, gotReq.Contents, 3)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	assert.Equal(t, "model", gotReq.Contents[1].Role)
	assert.Equal(t, "user", gotReq.Contents[2].Role)

	assert.Equal(t, 0.2, gotReq.GenerationConfig.Temperature)
	assert.Equal(t, 2048, gotReq.GenerationConfig.MaxOutputTokens)
}

func TestChat_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"quota", http.StatusTooManyRequests, domain.ErrQuotaExhausted},
		{"unauthorized", http.StatusUnauthorized, domain.ErrPermissionDenied},
		{"forbidden", http.StatusForbidden, domain.ErrPermissionDenied},
		{"unavailable", http.StatusServiceUnavailable, domain.ErrModelUnavailable},
		{"internal", http.StatusInternalServerError, domain.ErrModelUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := model.Chat(context.Background(), []driven.ChatMessage{
				{Role: driven.RoleUser, Content: "hola"},
			}, driven.ChatOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChat_QuotaSetsBackoff(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := model.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleUser, Content: "hola"},
	}, driven.ChatOptions{})
	require.ErrorIs(t, err, domain.ErrQuotaExhausted)

	assert.False(t, model.limiter.Allow(), "a 429 must open a backoff window")
}

func TestChat_NoCandidates(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	})

	_, err := model.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleUser, Content: "hola"},
	}, driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestPing(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, model.Ping(context.Background()))
	assert.Equal(t, "gemini-test", model.ModelName())
	assert.NoError(t, model.Close())
}

func TestRateLimiter_Backoff(t *testing.T) {
	limiter := NewRateLimiter(fastLimit)
	assert.True(t, limiter.Allow())

	limiter.RecordRateLimitError(60)
	assert.False(t, limiter.Allow())
}
