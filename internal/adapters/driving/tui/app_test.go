package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

// mockChat implements driving.ChatService for testing.
type mockChat struct {
	answer    domain.Answer
	questions []string
	resets    int
}

func (m *mockChat) Ask(_ context.Context, session *domain.Session, question string) (domain.Answer, error) {
	m.questions = append(m.questions, question)
	session.History = session.History.
		Append(domain.RoleHuman, question).
		Append(domain.RoleAI, m.answer.Text)
	return m.answer, nil
}

func (m *mockChat) Reset(session *domain.Session) {
	m.resets++
	session.Reset()
}

func sizedApp(chat *mockChat) *App {
	app := NewApp(chat)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(*App)
}

func typeText(app *App, text string) *App {
	for _, r := range text {
		model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		app = model.(*App)
	}
	return app
}

func TestApp_SubmitDispatchesQuestion(t *testing.T) {
	chat := &mockChat{answer: domain.Answer{Text: "Cubre el 90%."}}
	app := sizedApp(chat)
	app = typeText(app, "¿Cuánto cubre?")

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	require.NotNil(t, cmd, "enter with text must produce an ask command")
	assert.True(t, app.thinking)

	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, "Cubre el 90%.", answer.answer.Text)
	assert.Equal(t, []string{"¿Cuánto cubre?"}, chat.questions)

	model, _ = app.Update(msg)
	app = model.(*App)
	assert.False(t, app.thinking)
	assert.Contains(t, app.viewport.View(), "Cubre el 90%.")
}

func TestApp_EmptySubmitDoesNothing(t *testing.T) {
	chat := &mockChat{}
	app := sizedApp(chat)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, chat.questions)
}

func TestApp_ResetKeywordClearsTranscript(t *testing.T) {
	chat := &mockChat{answer: domain.Answer{Text: "Hola."}}
	app := sizedApp(chat)

	app = typeText(app, "hola")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	model, _ = app.Update(cmd())
	app = model.(*App)
	require.NotEmpty(t, app.transcript)

	app = typeText(app, "reiniciar")
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)

	assert.Equal(t, 1, chat.resets)
	assert.Empty(t, app.transcript)
}

func TestApp_EscQuits(t *testing.T) {
	app := sizedApp(&mockChat{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderSources(t *testing.T) {
	view := domain.AttributionView{
		PDFs:         []domain.PDFSource{{FileName: "manual.pdf", Pages: []int{0, 2}}},
		Scholarships: []string{"Beca de Excelencia Académica"},
	}

	rendered := renderSources(view)
	assert.Contains(t, rendered, "manual.pdf (pág. 1, 3)")
	assert.Contains(t, rendered, "Beca de Excelencia Académica")

	assert.Empty(t, renderSources(domain.AttributionView{}))
}
