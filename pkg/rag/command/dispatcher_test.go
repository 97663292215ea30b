package command

import (
	"context"
	"errors"
	"testing"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/events"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/conversation"
	"study-assistant-be/pkg/rag/engine"
	"study-assistant-be/pkg/rag/registry"
	"study-assistant-be/pkg/rag/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRegistry struct {
	records   map[string]registry.Status
	created   []string
	deleted   []string
	addResult *registry.AddResult
}

func (s *stubRegistry) CreateAssistant(_ context.Context, name string, _ []registry.File) error {
	s.created = append(s.created, name)
	s.records[name] = registry.StatusReady
	return nil
}

func (s *stubRegistry) AddDocuments(context.Context, string, []registry.File) (*registry.AddResult, error) {
	return s.addResult, nil
}

func (s *stubRegistry) DeleteAssistant(_ context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	delete(s.records, name)
	return nil
}

func (s *stubRegistry) DeleteDocument(context.Context, string, string) error { return nil }

func (s *stubRegistry) Lookup(_ context.Context, name string) (*registry.AssistantRecord, error) {
	status, ok := s.records[name]
	if !ok {
		return nil, rag.ErrAssistantNotFound
	}
	return &registry.AssistantRecord{Name: name, Status: status}, nil
}

// stubEngine answers with a fixed set of fragments. When gate is set the query blocks until
// the test releases it.
type stubEngine struct {
	engine.Engine
	fragments []rag.Fragment
	err       error
	started   chan struct{}
	gate      chan struct{}
}

func (e *stubEngine) Query(_ context.Context, _ string, text string, _ []rag.HistoryEntry) (*engine.Answer, error) {
	if e.started != nil {
		close(e.started)
	}
	if e.gate != nil {
		<-e.gate
	}
	if e.err != nil {
		return nil, e.err
	}
	return &engine.Answer{Text: "answer to " + text, Fragments: e.fragments}, nil
}

func frag(file, content string) rag.Fragment {
	return rag.Fragment{Filename: file, Content: content}
}

func setup(status registry.Status) (*Dispatcher, *stubRegistry, *stubEngine, *workspace.Workspace) {
	reg := &stubRegistry{records: map[string]registry.Status{"physics": status}}
	eng := &stubEngine{fragments: []rag.Fragment{frag("waves.txt", "light is a wave"), frag("waves.txt", "light is a wave")}}
	log := logger.NewNopLogger()
	return NewDispatcher(reg, eng, events.Nop{}, log), reg, eng, workspace.New("session-1", log)
}

func TestDispatch_SubmitQueryRecordsTurn(t *testing.T) {
	d, _, _, ws := setup(registry.StatusReady)

	res, err := d.Dispatch(context.Background(), ws, SubmitQuery{Assistant: "physics", Query: "what is light"})

	require.NoError(t, err)
	assert.Equal(t, conversation.OutcomeAccepted, res.Outcome)
	require.NotNil(t, res.Turn)
	assert.Equal(t, 0, res.Turn.Index)
	assert.Equal(t, "answer to what is light", res.Turn.Answer)
	assert.Len(t, res.Fragments, 1)

	conv, ok := ws.Lookup("physics")
	require.True(t, ok)
	assert.Equal(t, conversation.StateIdle, conv.State())
	assert.Len(t, conv.History(), 2)
}

func TestDispatch_SubmitQueryRequiresReadyAssistant(t *testing.T) {
	d, _, _, ws := setup(registry.StatusPending)

	_, err := d.Dispatch(context.Background(), ws, SubmitQuery{Assistant: "physics", Query: "q"})
	assert.ErrorIs(t, err, rag.ErrAssistantNotReady)

	_, err = d.Dispatch(context.Background(), ws, SubmitQuery{Assistant: "chemistry", Query: "q"})
	assert.ErrorIs(t, err, rag.ErrAssistantNotFound)
}

func TestDispatch_EmptyQueryIsAnOutcome(t *testing.T) {
	d, _, _, ws := setup(registry.StatusReady)

	res, err := d.Dispatch(context.Background(), ws, SubmitQuery{Assistant: "physics", Query: "   "})

	require.NoError(t, err)
	assert.Equal(t, conversation.OutcomeEmptyQuery, res.Outcome)
	assert.Nil(t, res.Turn)
}

func TestDispatch_EngineFailureReturnsToIdle(t *testing.T) {
	d, _, eng, ws := setup(registry.StatusReady)
	eng.err = errors.New("index offline")

	_, err := d.Dispatch(context.Background(), ws, SubmitQuery{Assistant: "physics", Query: "q"})

	require.Error(t, err)
	conv, _ := ws.Lookup("physics")
	assert.Equal(t, conversation.StateIdle, conv.State())
	assert.Empty(t, conv.Turns())
}

// A reset while the engine is answering discards the late result.
func TestDispatch_ResetDuringQueryDiscardsResult(t *testing.T) {
	d, _, eng, ws := setup(registry.StatusReady)
	eng.started = make(chan struct{})
	eng.gate = make(chan struct{})
	ctx := context.Background()

	done := make(chan *Result)
	go func() {
		res, err := d.Dispatch(ctx, ws, SubmitQuery{Assistant: "physics", Query: "q1"})
		assert.NoError(t, err)
		done <- res
	}()

	<-eng.started
	_, err := d.Dispatch(ctx, ws, ResetConversation{Assistant: "physics"})
	require.NoError(t, err)
	close(eng.gate)

	res := <-done
	assert.Equal(t, conversation.OutcomeStaleResultDiscarded, res.Outcome)
	conv, _ := ws.Lookup("physics")
	assert.Empty(t, conv.Turns())
	assert.Equal(t, 0, conv.ReferencedFragments())
	assert.Equal(t, conversation.StateIdle, conv.State())
}

func TestDispatch_ShowAndCloseFragments(t *testing.T) {
	d, _, _, ws := setup(registry.StatusReady)
	ctx := context.Background()
	_, err := d.Dispatch(ctx, ws, SubmitQuery{Assistant: "physics", Query: "q"})
	require.NoError(t, err)

	res, err := d.Dispatch(ctx, ws, ShowFragments{Assistant: "physics", Turn: 0, Filename: "waves.txt"})
	require.NoError(t, err)
	show, ok := res.Display.(conversation.ShowFragments)
	require.True(t, ok)
	assert.Equal(t, "waves.txt", show.Filename)

	_, err = d.Dispatch(ctx, ws, ShowFragments{Assistant: "physics", Turn: 3, Filename: "waves.txt"})
	assert.ErrorIs(t, err, conversation.ErrTurnNotFound)

	_, err = d.Dispatch(ctx, ws, CloseDisplay{Assistant: "physics"})
	require.NoError(t, err)
	conv, _ := ws.Lookup("physics")
	assert.Equal(t, conversation.NoDisplay{}, conv.Display())
}

func TestDispatch_DeleteAssistantDropsConversation(t *testing.T) {
	d, reg, _, ws := setup(registry.StatusReady)
	ctx := context.Background()
	_, err := ws.Open("physics")
	require.NoError(t, err)

	_, err = d.Dispatch(ctx, ws, DeleteAssistant{Name: "physics"})

	require.NoError(t, err)
	assert.Equal(t, []string{"physics"}, reg.deleted)
	_, ok := ws.Lookup("physics")
	assert.False(t, ok)
}

func TestDispatch_ValidationRunsFirst(t *testing.T) {
	d, reg, _, ws := setup(registry.StatusReady)

	_, err := d.Dispatch(context.Background(), ws, CreateAssistant{Name: "Bad Name", Files: []registry.File{{Filename: "a.txt"}}})

	assert.ErrorIs(t, err, rag.ErrInvalidName)
	assert.Empty(t, reg.created)
}

func TestDispatch_ConversationCommandsNeedWorkspace(t *testing.T) {
	d, _, _, _ := setup(registry.StatusReady)

	_, err := d.Dispatch(context.Background(), nil, ResetConversation{Assistant: "physics"})

	assert.ErrorIs(t, err, ErrNoWorkspace)
}
