package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ASSISTANT_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher delivers events to some transport. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Registry event types.
const (
	TypeAssistantCreated   = "ASSISTANT_CREATED"
	TypeIngestionFailed    = "INGESTION_FAILED"
	TypeDocumentsAdded     = "DOCUMENTS_ADDED"
	TypeDocumentDeleted    = "DOCUMENT_DELETED"
	TypeAssistantDeleted   = "ASSISTANT_DELETED"
	TypeDeleteIncomplete   = "DELETE_INCOMPLETE"
	TypeCorpusChanged      = "CORPUS_CHANGED"
	TypeConversationReset  = "CONVERSATION_RESET"
	TypeConversationAnswer = "CONVERSATION_ANSWERED"
)

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Assistant extracts the "assistant" field most registry events carry.
func Assistant(e Event) string {
	name, _ := e.Payload()["assistant"].(string)
	return name
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
