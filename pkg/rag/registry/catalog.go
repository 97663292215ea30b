package registry

import (
	"context"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
)

// DocumentRecord is the bookkeeping row of one stored document.
type DocumentRecord struct {
	Filename    string `json:"filename"`
	FileType    string `json:"file_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Checksum    string `json:"checksum"`
	StoragePath string `json:"storage_path"`
}

type AssistantRecord struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Documents int    `json:"documents"`
}

// Catalog is the persistent metadata store. Deletes of missing rows succeed.
type Catalog interface {
	UpsertAssistant(ctx context.Context, name string, status Status) error
	SetStatus(ctx context.Context, name string, status Status) error
	PutDocuments(ctx context.Context, name string, docs []DocumentRecord) error
	GetAssistant(ctx context.Context, name string) (*AssistantRecord, error)
	ListAssistants(ctx context.Context) ([]AssistantRecord, error)
	ListDocuments(ctx context.Context, name string) ([]DocumentRecord, error)
	DeleteAssistant(ctx context.Context, name string) error
	DeleteDocument(ctx context.Context, name, filename string) error
}

// Conversations drops open conversations of a deleted assistant in every session.
type Conversations interface {
	DropAssistant(name string) int
}
