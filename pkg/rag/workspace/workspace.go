// Package workspace is the session-scoped context mapping each assistant to its conversation.
package workspace

import (
	"sort"
	"sync"
	"time"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/conversation"
)

// Workspace owns the conversations of one user session. It is created at session start and
// passed explicitly to every chat operation.
type Workspace struct {
	ID        string
	CreatedAt time.Time

	mu            sync.Mutex
	conversations map[string]*conversation.Conversation
	logger        logger.ILogger
}

func New(id string, log logger.ILogger) *Workspace {
	return &Workspace{
		ID:            id,
		CreatedAt:     time.Now(),
		conversations: make(map[string]*conversation.Conversation),
		logger:        log,
	}
}

// Open returns the assistant's conversation, creating it on first use.
func (w *Workspace) Open(assistant string) (*conversation.Conversation, error) {
	if err := rag.ValidateAssistantName(assistant); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.conversations[assistant]; ok {
		return c, nil
	}
	c := conversation.New(assistant, w.logger)
	w.conversations[assistant] = c
	return c, nil
}

// Lookup returns an already opened conversation without creating one.
func (w *Workspace) Lookup(assistant string) (*conversation.Conversation, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.conversations[assistant]
	return c, ok
}

// Drop forgets the assistant's conversation. Called when the assistant is deleted.
func (w *Workspace) Drop(assistant string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.conversations[assistant]
	if !ok {
		return false
	}
	c.Reset()
	delete(w.conversations, assistant)
	return true
}

// Assistants lists the assistants with an open conversation, sorted by name.
func (w *Workspace) Assistants() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.conversations))
	for name := range w.conversations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close resets and drops every conversation.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, c := range w.conversations {
		c.Reset()
		delete(w.conversations, name)
	}
}
