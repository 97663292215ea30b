package contract

import (
	"context"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/repository/specification"
)

type AssistantRepository interface {
	// Upsert inserts the assistant or updates the status of the existing row with the same name.
	Upsert(ctx context.Context, assistant *entity.Assistant) error
	UpdateStatus(ctx context.Context, name, status string) error
	DeleteByName(ctx context.Context, name string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Assistant, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Assistant, error)
}

type DocumentCount struct {
	AssistantName string
	Count         int64
}

type AssistantDocumentRepository interface {
	// UpsertBulk inserts documents, replacing the metadata of existing (assistant, filename) rows.
	UpsertBulk(ctx context.Context, docs []*entity.AssistantDocument) error
	DeleteByAssistant(ctx context.Context, assistantName string) error
	DeleteByFilename(ctx context.Context, assistantName, filename string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssistantDocument, error)
	CountByAssistant(ctx context.Context) ([]DocumentCount, error)
}
