package service

import (
	"context"
	"fmt"
	"time"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/repository/specification"
	"study-assistant-be/internal/repository/unitofwork"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/registry"

	"github.com/google/uuid"
)

// catalogService is the postgres-backed registry.Catalog.
type catalogService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCatalogService(uowFactory unitofwork.RepositoryFactory) registry.Catalog {
	return &catalogService{uowFactory: uowFactory}
}

func (s *catalogService) UpsertAssistant(ctx context.Context, name string, status registry.Status) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AssistantRepository().Upsert(ctx, &entity.Assistant{
		Id:        uuid.New(),
		Name:      name,
		Status:    string(status),
		CreatedAt: time.Now(),
	})
}

func (s *catalogService) SetStatus(ctx context.Context, name string, status registry.Status) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AssistantRepository().UpdateStatus(ctx, name, string(status))
}

func (s *catalogService) PutDocuments(ctx context.Context, name string, docs []registry.DocumentRecord) error {
	if len(docs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]*entity.AssistantDocument, len(docs))
	for i, d := range docs {
		rows[i] = &entity.AssistantDocument{
			Id:            uuid.New(),
			AssistantName: name,
			Filename:      d.Filename,
			FileType:      d.FileType,
			SizeBytes:     d.SizeBytes,
			Checksum:      d.Checksum,
			StoragePath:   d.StoragePath,
			CreatedAt:     now,
		}
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AssistantDocumentRepository().UpsertBulk(ctx, rows)
}

func (s *catalogService) GetAssistant(ctx context.Context, name string) (*registry.AssistantRecord, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	a, err := uow.AssistantRepository().FindOne(ctx, specification.ByName{Name: name})
	if err != nil || a == nil {
		return nil, err
	}
	docs, err := uow.AssistantDocumentRepository().FindAll(ctx, specification.ByAssistantName{AssistantName: name})
	if err != nil {
		return nil, err
	}
	return &registry.AssistantRecord{Name: a.Name, Status: registry.Status(a.Status), Documents: len(docs)}, nil
}

func (s *catalogService) ListAssistants(ctx context.Context) ([]registry.AssistantRecord, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	assistants, err := uow.AssistantRepository().FindAll(ctx, specification.OrderBy{Field: "name"})
	if err != nil {
		return nil, err
	}
	counts, err := uow.AssistantDocumentRepository().CountByAssistant(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int, len(counts))
	for _, c := range counts {
		byName[c.AssistantName] = int(c.Count)
	}

	out := make([]registry.AssistantRecord, len(assistants))
	for i, a := range assistants {
		out[i] = registry.AssistantRecord{Name: a.Name, Status: registry.Status(a.Status), Documents: byName[a.Name]}
	}
	return out, nil
}

func (s *catalogService) ListDocuments(ctx context.Context, name string) ([]registry.DocumentRecord, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.AssistantDocumentRepository().FindAll(ctx,
		specification.ByAssistantName{AssistantName: name},
		specification.OrderBy{Field: "filename"},
	)
	if err != nil {
		return nil, err
	}
	out := make([]registry.DocumentRecord, len(docs))
	for i, d := range docs {
		out[i] = registry.DocumentRecord{
			Filename:    d.Filename,
			FileType:    d.FileType,
			SizeBytes:   d.SizeBytes,
			Checksum:    d.Checksum,
			StoragePath: d.StoragePath,
		}
	}
	return out, nil
}

// DeleteAssistant removes the documents and the assistant row in one transaction.
func (s *catalogService) DeleteAssistant(ctx context.Context, name string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.AssistantDocumentRepository().DeleteByAssistant(ctx, name); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if err := uow.AssistantRepository().DeleteByName(ctx, name); err != nil {
		return fmt.Errorf("delete assistant: %w", err)
	}
	return uow.Commit()
}

func (s *catalogService) DeleteDocument(ctx context.Context, name, filename string) error {
	if err := rag.ValidateFilename(filename); err != nil {
		return err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AssistantDocumentRepository().DeleteByFilename(ctx, name, filename)
}
