package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
)

// mockChatModel implements driven.ChatModel with a canned reply.
type mockChatModel struct {
	reply    string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (m *mockChatModel) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockChatModel) ModelName() string            { return "mock-chat" }
func (m *mockChatModel) Ping(_ context.Context) error { return nil }
func (m *mockChatModel) Close() error                 { return nil }

func newChatFixture(model *mockChatModel) *ChatService {
	retriever := NewRetriever(&mockEmbedder{}, &fixedIndexProvider{index: scholarshipIndex()}, DefaultTopK)
	return NewChatService(retriever, model)
}

func TestAsk_AnswersWithSources(t *testing.T) {
	model := &mockChatModel{reply: "La Beca de Excelencia Académica cubre el 90% del arancel."}
	service := newChatFixture(model)
	session := domain.NewSession()

	answer, err := service.Ask(context.Background(), session, "¿Cuánto cubre la beca de excelencia?")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "90%")
	assert.Contains(t, answer.Sources.Scholarships, "Beca de Excelencia Académica")

	require.Len(t, answer.Sources.PDFs, 1)
	assert.Equal(t, "manual.pdf", answer.Sources.PDFs[0].FileName)

	// One generation call per question.
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, AnswerTemperature, model.opts.Temperature)
	assert.Equal(t, AnswerMaxTokens, model.opts.MaxTokens)
}

func TestAsk_ConfiguredGenerationParameters(t *testing.T) {
	model := &mockChatModel{reply: "Claro."}
	retriever := NewRetriever(&mockEmbedder{}, &fixedIndexProvider{index: scholarshipIndex()}, DefaultTopK)
	service := NewChatService(retriever, model,
		WithTemperature(0.7),
		WithMaxTokens(512),
	)

	_, err := service.Ask(context.Background(), domain.NewSession(), "¿Qué becas hay?")
	require.NoError(t, err)

	assert.Equal(t, 0.7, model.opts.Temperature)
	assert.Equal(t, 512, model.opts.MaxTokens)
}

func TestAsk_RequestLayout(t *testing.T) {
	model := &mockChatModel{reply: "Claro."}
	service := newChatFixture(model)
	session := domain.NewSession()
	session.History = session.History.
		Append(domain.RoleHuman, "¿Qué becas hay?").
		Append(domain.RoleAI, "Hay becas de excelencia y deporte.")

	_, err := service.Ask(context.Background(), session, "¿Y cuánto cubre la de excelencia?")
	require.NoError(t, err)

	messages := model.messages
	require.Len(t, messages, 4)

	assert.Equal(t, driven.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "BecaBot")

	assert.Equal(t, driven.RoleUser, messages[1].Role)
	assert.Equal(t, "¿Qué becas hay?", messages[1].Content)
	assert.Equal(t, driven.RoleAssistant, messages[2].Role)

	last := messages[3]
	assert.Equal(t, driven.RoleUser, last.Role)
	assert.Contains(t, last.Content, "Contexto:")
	assert.Contains(t, last.Content, "90% del arancel")
	assert.True(t, strings.HasSuffix(last.Content, "Pregunta: ¿Y cuánto cubre la de excelencia?"))
}

func TestAsk_AppendsHistoryInOrder(t *testing.T) {
	model := &mockChatModel{reply: "Cubre el 90%."}
	service := newChatFixture(model)
	session := domain.NewSession()

	_, err := service.Ask(context.Background(), session, "¿Cuánto cubre la beca de excelencia?")
	require.NoError(t, err)

	require.Len(t, session.History, 2)
	assert.Equal(t, domain.RoleHuman, session.History[0].Role)
	assert.Equal(t, "¿Cuánto cubre la beca de excelencia?", session.History[0].Content)
	assert.Equal(t, domain.RoleAI, session.History[1].Role)
	assert.Equal(t, "Cubre el 90%.", session.History[1].Content)
	assert.Equal(t, 1, session.History.Exchanges())
}

func TestAsk_EmptyQuestion(t *testing.T) {
	service := newChatFixture(&mockChatModel{reply: "x"})
	session := domain.NewSession()

	_, err := service.Ask(context.Background(), session, "  \n ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, session.History)
}

func TestAsk_ModelFailuresBecomeAnswers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"quota", domain.ErrQuotaExhausted, "límite de consultas"},
		{"permission", domain.ErrPermissionDenied, "credenciales"},
		{"unavailable", domain.ErrModelUnavailable, "no está disponible"},
		{"generic", context.DeadlineExceeded, "intenta de nuevo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newChatFixture(&mockChatModel{err: tt.err})
			session := domain.NewSession()
			session.History = session.History.Append(domain.RoleHuman, "hola")

			answer, err := service.Ask(context.Background(), session, "¿Qué becas hay?")
			require.NoError(t, err, "model failures surface as answers, not errors")
			assert.Contains(t, answer.Text, tt.want)
			assert.True(t, answer.Sources.Empty())

			// History untouched so the user can retry.
			require.Len(t, session.History, 1)
		})
	}
}

func TestReset(t *testing.T) {
	service := newChatFixture(&mockChatModel{reply: "Hola."})
	session := domain.NewSession()
	session.History = session.History.
		Append(domain.RoleHuman, "hola").
		Append(domain.RoleAI, "Hola, ¿en qué te ayudo?")

	service.Reset(session)
	assert.Empty(t, session.History)

	service.Reset(nil)
}
