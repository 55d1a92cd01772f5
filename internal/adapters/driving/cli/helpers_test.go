package cli

import (
	"bytes"
	"context"
	"io"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockIngest implements driving.IngestService for testing.
type mockIngest struct {
	stats    driving.IngestStats
	status   driving.SourceStatus
	err      error
	rebuilds int
}

func (m *mockIngest) EnsureIndex(_ context.Context) (driving.IngestStats, error) {
	return m.stats, m.err
}

func (m *mockIngest) Rebuild(_ context.Context) (driving.IngestStats, error) {
	m.rebuilds++
	return m.stats, m.err
}

func (m *mockIngest) Status(_ context.Context) (driving.SourceStatus, error) {
	return m.status, m.err
}

func (m *mockIngest) MarkStale() {}

// mockChat implements driving.ChatService for testing.
type mockChat struct {
	answer    domain.Answer
	err       error
	questions []string
	resets    int
}

func (m *mockChat) Ask(_ context.Context, session *domain.Session, question string) (domain.Answer, error) {
	if m.err != nil {
		return domain.Answer{}, m.err
	}
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

// setupTestServices installs mock services and returns them with a
// cleanup that restores the previous wiring.
func setupTestServices() (*mockIngest, *mockChat, func()) {
	prevIngest, prevChat := ingestService, chatService
	prevSetup := setupFunc

	ingest := &mockIngest{}
	chat := &mockChat{answer: domain.Answer{Text: "Respuesta de prueba."}}
	SetServices(ingest, chat)
	SetSetupFunc(nil)

	return ingest, chat, func() {
		ingestService, chatService = prevIngest, prevChat
		setupFunc = prevSetup
	}
}

// execute runs the root command with args and captures its output.
func execute(args []string, stdin io.Reader) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
