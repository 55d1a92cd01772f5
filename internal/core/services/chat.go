package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driving"
	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Default generation parameters for scholarship answers. Low temperature
// keeps the model close to the grounding fragments.
const (
	AnswerTemperature = 0.2
	AnswerMaxTokens   = 2048
)

// systemPrompt defines the assistant persona. The model must stay inside
// the scholarship domain, keep conversational continuity, and never
// expose the retrieval machinery to the user.
const systemPrompt = `Eres BecaBot, el asistente virtual de becas de la Universidad Técnica Particular de Loja (UTPL).

Reglas:
- Responde únicamente preguntas sobre becas, ayudas económicas y su proceso de postulación en la UTPL.
- Usa solamente la información del contexto proporcionado. Si la respuesta no está en el contexto, dilo con claridad y sugiere contactar a la oficina de becas. Nunca inventes requisitos, montos ni fechas.
- Mantén la continuidad de la conversación: no vuelvas a saludar si la conversación ya empezó.
- Nunca menciones documentos, archivos, PDFs ni "el contexto proporcionado"; habla como quien conoce la información de primera mano.
- Responde en español, con un tono cercano y claro.`

// User-facing messages for model failure classes. The session history is
// left untouched so the user can simply retry the same question.
const (
	msgQuotaExhausted = "Lo siento, he alcanzado el límite de consultas por ahora. " +
		"Por favor intenta de nuevo en unos minutos."
	msgPermissionDenied = "No puedo conectarme al servicio de respuestas por un problema de credenciales. " +
		"Revisa la configuración de la clave de API."
	msgModelUnavailable = "El servicio de respuestas no está disponible en este momento. " +
		"Por favor intenta de nuevo más tarde."
	msgGenericFailure = "Ocurrió un error al generar la respuesta. Por favor intenta de nuevo."
)

// retriever is the fragment lookup the conversation engine depends on.
type retriever interface {
	Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error)
}

// ChatService answers scholarship questions grounded in retrieved
// fragments, one generation call per question.
type ChatService struct {
	retriever   retriever
	model       driven.ChatModel
	temperature float64
	maxTokens   int
}

// ChatOption configures the chat service.
type ChatOption func(*ChatService)

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) ChatOption {
	return func(s *ChatService) {
		if t >= 0 {
			s.temperature = t
		}
	}
}

// WithMaxTokens caps the answer length in tokens.
func WithMaxTokens(n int) ChatOption {
	return func(s *ChatService) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewChatService creates a new chat service.
func NewChatService(retriever retriever, model driven.ChatModel, opts ...ChatOption) *ChatService {
	s := &ChatService{
		retriever:   retriever,
		model:       model,
		temperature: AnswerTemperature,
		maxTokens:   AnswerMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers one question in the context of the session. On success the
// question and answer are appended to the history in that order; on a
// model failure the history is untouched and the returned Answer carries
// the user-facing failure message.
func (s *ChatService) Ask(ctx context.Context, session *domain.Session, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if session == nil {
		return domain.Answer{}, fmt.Errorf("%w: nil session", domain.ErrInvalidInput)
	}

	retrieval, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}

	messages := s.buildMessages(session.History, retrieval, question)

	text, err := s.model.Chat(ctx, messages, driven.ChatOptions{
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return domain.Answer{
			Text:    failureMessage(err),
			Sources: domain.Summarize(nil),
		}, nil
	}

	session.History = session.History.
		Append(domain.RoleHuman, question).
		Append(domain.RoleAI, text)

	return domain.Answer{
		Text:    text,
		Sources: domain.Summarize(retrieval),
	}, nil
}

// Reset clears the session history.
func (s *ChatService) Reset(session *domain.Session) {
	if session != nil {
		session.Reset()
	}
}

// buildMessages assembles the full request: persona, the conversation so
// far, then the grounding fragments and the new question as the final
// user turn.
func (s *ChatService) buildMessages(history domain.History, retrieval domain.RetrievalResult, question string) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleSystem,
		Content: systemPrompt,
	})

	for _, turn := range history {
		role := driven.RoleUser
		if turn.Role == domain.RoleAI {
			role = driven.RoleAssistant
		}
		messages = append(messages, driven.ChatMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	var final strings.Builder
	if grounding := retrieval.GroundingText(); grounding != "" {
		final.WriteString("Contexto:\n")
		final.WriteString(grounding)
		final.WriteString("\n\n")
	}
	final.WriteString("Pregunta: ")
	final.WriteString(question)

	return append(messages, driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: final.String(),
	})
}

// failureMessage maps a model failure to what the user reads.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuotaExhausted):
		return msgQuotaExhausted
	case errors.Is(err, domain.ErrPermissionDenied):
		return msgPermissionDenied
	case errors.Is(err, domain.ErrModelUnavailable):
		return msgModelUnavailable
	default:
		return msgGenericFailure
	}
}
