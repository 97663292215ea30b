package command

import (
	"context"
	"fmt"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/events"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/conversation"
	"study-assistant-be/pkg/rag/engine"
	"study-assistant-be/pkg/rag/registry"
	"study-assistant-be/pkg/rag/workspace"
)

// Registry is the part of registry.Registry the dispatcher drives.
type Registry interface {
	CreateAssistant(ctx context.Context, name string, files []registry.File) error
	AddDocuments(ctx context.Context, name string, files []registry.File) (*registry.AddResult, error)
	DeleteAssistant(ctx context.Context, name string) error
	DeleteDocument(ctx context.Context, name, filename string) error
	Lookup(ctx context.Context, name string) (*registry.AssistantRecord, error)
}

var _ Registry = (*registry.Registry)(nil)

// Result carries whatever the dispatched command produced. Fields not relevant to the
// command's kind are zero.
type Result struct {
	Kind      Kind
	Outcome   conversation.Outcome
	Turn      *conversation.Turn
	Fragments []rag.Fragment
	Added     *registry.AddResult
	Display   conversation.DisplayRequest
}

type Dispatcher struct {
	registry  Registry
	engine    engine.Engine
	publisher events.Publisher
	logger    logger.ILogger
}

func NewDispatcher(reg Registry, eng engine.Engine, publisher events.Publisher, log logger.ILogger) *Dispatcher {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Dispatcher{registry: reg, engine: eng, publisher: publisher, logger: log}
}

// Dispatch validates cmd and applies it. Conversation commands need the session workspace;
// registry commands ignore it.
func (d *Dispatcher) Dispatch(ctx context.Context, ws *workspace.Workspace, cmd Command) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Kind: cmd.Kind()}

	switch c := cmd.(type) {
	case CreateAssistant:
		return res, d.registry.CreateAssistant(ctx, c.Name, c.Files)

	case AddDocuments:
		added, err := d.registry.AddDocuments(ctx, c.Assistant, c.Files)
		res.Added = added
		return res, err

	case DeleteDocument:
		return res, d.registry.DeleteDocument(ctx, c.Assistant, c.Filename)

	case DeleteAssistant:
		err := d.registry.DeleteAssistant(ctx, c.Name)
		if ws != nil {
			ws.Drop(c.Name)
		}
		return res, err

	case SubmitQuery:
		return d.submit(ctx, ws, c, res)

	case ResetConversation:
		if ws == nil {
			return nil, ErrNoWorkspace
		}
		if conv, ok := ws.Lookup(c.Assistant); ok {
			conv.Reset()
		}
		d.publish(ctx, events.TypeConversationReset, map[string]interface{}{
			"assistant": c.Assistant,
			"session":   ws.ID,
		})
		res.Display = conversation.NoDisplay{}
		return res, nil

	case ShowFragments:
		conv, err := open(ws, c.Assistant)
		if err != nil {
			return nil, err
		}
		req, err := conv.ShowFragments(c.Turn, c.Filename)
		if err != nil {
			return nil, err
		}
		res.Display = req
		res.Fragments = req.Fragments
		return res, nil

	case CloseDisplay:
		conv, err := open(ws, c.Assistant)
		if err != nil {
			return nil, err
		}
		conv.CloseDisplay()
		res.Display = conversation.NoDisplay{}
		return res, nil
	}
	return nil, fmt.Errorf("unknown command %q", cmd.Kind())
}

// submit runs one turn: gate through the conversation, query the engine, then record the
// answer unless the conversation was reset meanwhile.
func (d *Dispatcher) submit(ctx context.Context, ws *workspace.Workspace, c SubmitQuery, res *Result) (*Result, error) {
	rec, err := d.registry.Lookup(ctx, c.Assistant)
	if err != nil {
		return nil, err
	}
	if rec.Status != registry.StatusReady {
		return nil, rag.ErrAssistantNotReady
	}
	conv, err := open(ws, c.Assistant)
	if err != nil {
		return nil, err
	}

	ticket, outcome := conv.Submit(c.Query)
	res.Outcome = outcome
	if outcome != conversation.OutcomeAccepted {
		return res, nil
	}

	answer, err := d.engine.Query(ctx, c.Assistant, ticket.Query, ticket.History)
	if err != nil {
		conv.Abort(ticket)
		d.logger.Error("DISPATCHER", "Engine query failed", map[string]interface{}{
			"assistant": c.Assistant,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("query %s: %w", c.Assistant, err)
	}

	done, outcome := conv.Complete(ticket, answer.Text, answer.Fragments)
	res.Outcome = outcome
	if outcome != conversation.OutcomeAccepted {
		return res, nil
	}
	res.Turn = &done.Turn
	res.Fragments = done.Fragments

	d.publish(ctx, events.TypeConversationAnswer, map[string]interface{}{
		"assistant": c.Assistant,
		"session":   ws.ID,
		"turn":      done.Turn.Index,
		"fragments": len(res.Fragments),
	})
	return res, nil
}

// Lookup reports the registry record of an assistant without touching any conversation.
func (d *Dispatcher) Lookup(ctx context.Context, assistant string) (*registry.AssistantRecord, error) {
	if err := rag.ValidateAssistantName(assistant); err != nil {
		return nil, err
	}
	return d.registry.Lookup(ctx, assistant)
}

func open(ws *workspace.Workspace, assistant string) (*conversation.Conversation, error) {
	if ws == nil {
		return nil, ErrNoWorkspace
	}
	return ws.Open(assistant)
}

func (d *Dispatcher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := d.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		d.logger.Warn("DISPATCHER", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
