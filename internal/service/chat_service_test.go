package service

import (
	"context"
	"testing"
	"time"

	"study-assistant-be/internal/dto"
	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/internal/repository/memory"
	"study-assistant-be/pkg/events"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/command"
	"study-assistant-be/pkg/rag/conversation"
	"study-assistant-be/pkg/rag/engine"
	"study-assistant-be/pkg/rag/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyRegistry struct{}

func (readyRegistry) CreateAssistant(context.Context, string, []registry.File) error { return nil }
func (readyRegistry) AddDocuments(context.Context, string, []registry.File) (*registry.AddResult, error) {
	return &registry.AddResult{}, nil
}
func (readyRegistry) DeleteAssistant(context.Context, string) error        { return nil }
func (readyRegistry) DeleteDocument(context.Context, string, string) error { return nil }
// Lookup knows every assistant except "ghost".
func (readyRegistry) Lookup(_ context.Context, name string) (*registry.AssistantRecord, error) {
	if name == "ghost" {
		return nil, rag.ErrAssistantNotFound
	}
	return &registry.AssistantRecord{Name: name, Status: registry.StatusReady}, nil
}

type citingEngine struct{ engine.Engine }

func (citingEngine) Query(_ context.Context, _ string, text string, _ []rag.HistoryEntry) (*engine.Answer, error) {
	return &engine.Answer{
		Text: "re: " + text,
		Fragments: []rag.Fragment{
			{Filename: "optics.txt", Content: "refraction"},
			{Filename: "waves.txt", Content: "interference"},
		},
	}, nil
}

func newChatFixture(t *testing.T) (IChatService, ISessionService) {
	t.Helper()
	log := logger.NewNopLogger()
	workspaces := memory.NewWorkspaceRepository(time.Hour, log)
	dispatcher := command.NewDispatcher(readyRegistry{}, citingEngine{}, events.Nop{}, log)
	return NewChatService(dispatcher, workspaces), NewSessionService(workspaces, "secret", time.Hour, log)
}

func TestChatService_SendAndHistory(t *testing.T) {
	chat, sessions := newChatFixture(t)
	ctx := context.Background()
	sess, err := sessions.Start()
	require.NoError(t, err)

	res, err := chat.Send(ctx, sess.SessionID, "physics", &dto.SendChatRequest{Query: "why is the sky blue"})
	require.NoError(t, err)
	assert.Equal(t, string(conversation.OutcomeAccepted), res.Outcome)
	require.NotNil(t, res.Turn)
	assert.Equal(t, "re: why is the sky blue", res.Turn.Answer)
	assert.Len(t, res.Turn.Sources, 2)

	hist, err := chat.History(ctx, sess.SessionID, "physics")
	require.NoError(t, err)
	assert.Equal(t, string(conversation.StateIdle), hist.State)
	assert.Len(t, hist.Turns, 1)

	sources, err := chat.Sources(ctx, sess.SessionID, "physics")
	require.NoError(t, err)
	assert.Len(t, sources.Sources, 2)
}

func TestChatService_ShowResetAndDisplay(t *testing.T) {
	chat, sessions := newChatFixture(t)
	ctx := context.Background()
	sess, err := sessions.Start()
	require.NoError(t, err)
	_, err = chat.Send(ctx, sess.SessionID, "physics", &dto.SendChatRequest{Query: "q"})
	require.NoError(t, err)

	shown, err := chat.ShowFragments(ctx, sess.SessionID, "physics", 0, "optics.txt")
	require.NoError(t, err)
	assert.True(t, shown.Open)
	assert.Len(t, shown.Fragments, 1)

	require.NoError(t, chat.Reset(ctx, sess.SessionID, "physics"))

	display, err := chat.Display(ctx, sess.SessionID, "physics")
	require.NoError(t, err)
	assert.False(t, display.Open)
	_, err = chat.TurnSources(ctx, sess.SessionID, "physics", 0)
	assert.ErrorIs(t, err, conversation.ErrTurnNotFound)
}

func TestChatService_UnknownSession(t *testing.T) {
	chat, _ := newChatFixture(t)

	_, err := chat.History(context.Background(), "gone", "physics")

	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionService_StartInfoEnd(t *testing.T) {
	chat, sessions := newChatFixture(t)
	ctx := context.Background()
	sess, err := sessions.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = chat.History(ctx, sess.SessionID, "physics")
	require.NoError(t, err)
	info, err := sessions.Info(sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"physics"}, info.Assistants)

	sessions.End(sess.SessionID)
	_, err = sessions.Info(sess.SessionID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

// Reading an assistant the session never talked to shows an empty conversation and does not
// open one.
func TestChatService_ReadsDoNotOpenConversations(t *testing.T) {
	log := logger.NewNopLogger()
	workspaces := memory.NewWorkspaceRepository(time.Hour, log)
	chat := NewChatService(command.NewDispatcher(readyRegistry{}, citingEngine{}, events.Nop{}, log), workspaces)
	sessions := NewSessionService(workspaces, "secret", time.Hour, log)
	ctx := context.Background()
	sess, err := sessions.Start()
	require.NoError(t, err)

	hist, err := chat.History(ctx, sess.SessionID, "physics")
	require.NoError(t, err)
	assert.Empty(t, hist.Turns)
	sources, err := chat.Sources(ctx, sess.SessionID, "physics")
	require.NoError(t, err)
	assert.Empty(t, sources.Sources)
	_, err = chat.Display(ctx, sess.SessionID, "physics")
	require.NoError(t, err)

	_, err = chat.History(ctx, sess.SessionID, "ghost")
	assert.ErrorIs(t, err, rag.ErrAssistantNotFound)

	ws, ok := workspaces.Get(sess.SessionID)
	require.True(t, ok)
	assert.Empty(t, ws.Assistants())
}
