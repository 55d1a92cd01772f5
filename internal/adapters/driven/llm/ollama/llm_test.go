package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
)

func TestChat(t *testing.T) {
	var gotReq chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Claro, hay becas de grado y posgrado."},
			Done:    true,
		})
	}))
	defer server.Close()

	model := NewChatModel(Config{BaseURL: server.URL, Model: "test-model"})

	answer, err := model.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "Eres BecaBot."},
		{Role: driven.RoleUser, Content: "¿Qué becas hay?"},
	}, driven.ChatOptions{Temperature: 0.2, MaxTokens: 2048})
	require.NoError(t, err)
	assert.Equal(t, "Claro, hay becas de grado y posgrado.", answer)

	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	require.NotNil(t, gotReq.Options)
	assert.Equal(t, 0.2, gotReq.Options.Temperature)
	assert.Equal(t, 2048, gotReq.Options.NumPredict)
}

func TestChat_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	model := NewChatModel(Config{BaseURL: server.URL})

	_, err := model.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleUser, Content: "hola"},
	}, driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDefaults(t *testing.T) {
	model := NewChatModel(Config{})
	assert.Equal(t, DefaultModel, model.ModelName())
	assert.NoError(t, model.Close())
}
