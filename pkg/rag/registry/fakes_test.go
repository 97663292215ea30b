package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/engine"
)

var errBoom = errors.New("boom")

// fakeEngine indexes one chunk per file and records every call.
type fakeEngine struct {
	mu          sync.Mutex
	chunks      map[string]map[string]int
	ingestErr   error
	deleteErr   error
	ingestCalls []ingestCall
	listCalls   []int
}

type ingestCall struct {
	assistant      string
	files          []string
	deleteExisting bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{chunks: make(map[string]map[string]int)}
}

func (e *fakeEngine) Ingest(_ context.Context, assistant string, files []engine.File, deleteExisting bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	call := ingestCall{assistant: assistant, deleteExisting: deleteExisting}
	for _, f := range files {
		call.files = append(call.files, f.Filename)
	}
	e.ingestCalls = append(e.ingestCalls, call)
	if e.ingestErr != nil {
		return e.ingestErr
	}
	if deleteExisting || e.chunks[assistant] == nil {
		e.chunks[assistant] = make(map[string]int)
	}
	for _, f := range files {
		e.chunks[assistant][f.Filename] = 1
	}
	return nil
}

func (e *fakeEngine) Query(context.Context, string, string, []rag.HistoryEntry) (*engine.Answer, error) {
	return &engine.Answer{}, nil
}

func (e *fakeEngine) ListDocuments(_ context.Context, assistant string, limit int) ([]engine.IndexedChunk, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listCalls = append(e.listCalls, limit)
	var names []string
	for name := range e.chunks[assistant] {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []engine.IndexedChunk
	for _, name := range names {
		for i := 0; i < e.chunks[assistant][name]; i++ {
			if len(out) == limit {
				return out, nil
			}
			out = append(out, engine.IndexedChunk{Filename: name, ChunkIndex: i})
		}
	}
	return out, nil
}

func (e *fakeEngine) DeleteAssistant(_ context.Context, assistant string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleteErr != nil {
		return e.deleteErr
	}
	delete(e.chunks, assistant)
	return nil
}

func (e *fakeEngine) DeleteDocument(_ context.Context, assistant, filename string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleteErr != nil {
		return e.deleteErr
	}
	delete(e.chunks[assistant], filename)
	return nil
}

func (e *fakeEngine) indexed(assistant string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var names []string
	for name := range e.chunks[assistant] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fakeCatalog struct {
	mu        sync.Mutex
	status    map[string]Status
	docs      map[string]map[string]DocumentRecord
	deleteErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{status: make(map[string]Status), docs: make(map[string]map[string]DocumentRecord)}
}

func (c *fakeCatalog) UpsertAssistant(_ context.Context, name string, status Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[name] = status
	return nil
}

func (c *fakeCatalog) SetStatus(_ context.Context, name string, status Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.status[name]; !ok {
		return rag.ErrAssistantNotFound
	}
	c.status[name] = status
	return nil
}

func (c *fakeCatalog) PutDocuments(_ context.Context, name string, docs []DocumentRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.docs[name] == nil {
		c.docs[name] = make(map[string]DocumentRecord)
	}
	for _, d := range docs {
		c.docs[name][d.Filename] = d
	}
	return nil
}

func (c *fakeCatalog) GetAssistant(_ context.Context, name string) (*AssistantRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.status[name]
	if !ok {
		return nil, nil
	}
	return &AssistantRecord{Name: name, Status: status, Documents: len(c.docs[name])}, nil
}

func (c *fakeCatalog) ListAssistants(_ context.Context) ([]AssistantRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []AssistantRecord
	for name, status := range c.status {
		out = append(out, AssistantRecord{Name: name, Status: status, Documents: len(c.docs[name])})
	}
	return out, nil
}

func (c *fakeCatalog) ListDocuments(_ context.Context, name string) ([]DocumentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []DocumentRecord
	for _, d := range c.docs[name] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (c *fakeCatalog) DeleteAssistant(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.status, name)
	delete(c.docs, name)
	return nil
}

func (c *fakeCatalog) DeleteDocument(_ context.Context, name, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.docs[name], filename)
	return nil
}

type fakeConversations struct {
	dropped []string
}

func (f *fakeConversations) DropAssistant(name string) int {
	f.dropped = append(f.dropped, name)
	return 1
}
