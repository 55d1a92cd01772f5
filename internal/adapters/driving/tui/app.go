// Package tui provides the full-screen chat interface, following the
// Elm architecture used by Bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driving"
)

// Styles for the chat view.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sourcesStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// answerMsg carries one completed answer back into the update loop.
type answerMsg struct {
	answer domain.Answer
	err    error
}

// App is the chat TUI model. It implements tea.Model.
type App struct {
	chat    driving.ChatService
	session *domain.Session

	viewport   viewport.Model
	input      textinput.Model
	transcript []string

	thinking bool
	ready    bool
	err      error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the chat TUI over the given chat service.
func NewApp(chat driving.ChatService) *App {
	input := textinput.New()
	input.Placeholder = "Escribe tu pregunta sobre becas..."
	input.Prompt = "tú> "
	input.Focus()

	return &App{
		chat:    chat,
		session: domain.NewSession(),
		input:   input,
	}
}

// Init returns the initial command.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			return a, a.submit()
		}

	case answerMsg:
		a.thinking = false
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.appendAnswer(msg.answer)
		return a, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// submit dispatches the typed question, handling the reset and exit
// keywords locally.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.thinking {
		return nil
	}
	a.input.Reset()

	switch strings.ToLower(question) {
	case "salir", "exit", "quit":
		return tea.Quit
	case "reiniciar", "reset":
		a.chat.Reset(a.session)
		a.transcript = nil
		a.refreshViewport()
		return nil
	}

	a.transcript = append(a.transcript, questionStyle.Render("tú> ")+question)
	a.thinking = true
	a.err = nil
	a.refreshViewport()

	session := a.session
	chat := a.chat
	return func() tea.Msg {
		answer, err := chat.Ask(context.Background(), session, question)
		return answerMsg{answer: answer, err: err}
	}
}

// appendAnswer renders the answer and its sources into the transcript.
func (a *App) appendAnswer(answer domain.Answer) {
	a.transcript = append(a.transcript, answerStyle.Render("becabot> "+answer.Text))
	if rendered := renderSources(answer.Sources); rendered != "" {
		a.transcript = append(a.transcript, sourcesStyle.Render(rendered))
	}
	a.transcript = append(a.transcript, "")
	a.refreshViewport()
}

// renderSources lines up the provenance summary for display.
func renderSources(view domain.AttributionView) string {
	if view.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Fuentes:")
	for _, pdf := range view.PDFs {
		pages := make([]string, len(pdf.Pages))
		for i, page := range pdf.Pages {
			pages[i] = fmt.Sprint(page + 1)
		}
		fmt.Fprintf(&b, "\n  %s (pág. %s)", pdf.FileName, strings.Join(pages, ", "))
	}
	for _, title := range view.Scholarships {
		fmt.Fprintf(&b, "\n  %s", title)
	}
	return b.String()
}

// layout sizes the components to the terminal.
func (a *App) layout() {
	headerHeight := 2
	footerHeight := 3
	vpHeight := a.height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !a.ready {
		a.viewport = viewport.New(a.width, vpHeight)
		a.ready = true
	} else {
		a.viewport.Width = a.width
		a.viewport.Height = vpHeight
	}
	a.input.Width = a.width - len(a.input.Prompt) - 2
	a.refreshViewport()
}

// refreshViewport re-renders the transcript and follows the tail.
func (a *App) refreshViewport() {
	if !a.ready {
		return
	}
	a.viewport.SetContent(strings.Join(a.transcript, "\n"))
	a.viewport.GotoBottom()
}

// View renders the chat screen.
func (a *App) View() string {
	if !a.ready {
		return "Cargando..."
	}

	header := titleStyle.Render("BecaBot") +
		statusStyle.Render("  becas UTPL · \"reiniciar\" limpia, \"salir\" o Esc termina")

	status := ""
	switch {
	case a.thinking:
		status = statusStyle.Render("Pensando...")
	case a.err != nil:
		status = statusStyle.Render("Error: " + a.err.Error())
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n%s", header, a.viewport.View(), status, a.input.View())
}

// Run starts the full-screen chat program.
func Run(chat driving.ChatService) error {
	program := tea.NewProgram(NewApp(chat), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
