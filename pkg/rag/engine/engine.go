// Package engine defines the retrieval engine contract the registry and conversations depend
// on. The postgres implementation lives in vectorindex.
package engine

import (
	"context"
	"errors"

	"study-assistant-be/pkg/rag"
)

var ErrNothingIndexed = errors.New("no text could be extracted from the submitted files")

// File is one document submitted for indexing.
type File struct {
	Filename string
	Content  []byte
}

// Answer is the engine's reply to a query together with every fragment it consulted.
type Answer struct {
	Text      string
	Fragments []rag.Fragment
}

// IndexedChunk is one entry of the engine's corpus listing.
type IndexedChunk struct {
	Filename   string                 `json:"filename"`
	ChunkIndex int                    `json:"chunk_index"`
	Page       *int                   `json:"page,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Engine is the retrieval backend. It is the source of truth for what is already ingested.
type Engine interface {
	// Ingest indexes files under assistant. With deleteExisting the assistant's whole index is
	// replaced; otherwise ingestion is additive.
	Ingest(ctx context.Context, assistant string, files []File, deleteExisting bool) error

	Query(ctx context.Context, assistant, text string, history []rag.HistoryEntry) (*Answer, error)

	// ListDocuments returns at most limit chunks. A result of exactly limit entries may be
	// truncated.
	ListDocuments(ctx context.Context, assistant string, limit int) ([]IndexedChunk, error)

	DeleteAssistant(ctx context.Context, assistant string) error
	DeleteDocument(ctx context.Context, assistant, filename string) error
}

// ChunksByFile counts chunks per filename.
func ChunksByFile(chunks []IndexedChunk) map[string]int {
	counts := make(map[string]int)
	for _, c := range chunks {
		name := c.Filename
		if name == "" {
			name = rag.UnknownFilename
		}
		counts[name]++
	}
	return counts
}
