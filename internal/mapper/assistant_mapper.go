package mapper

import (
	"time"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

func updatedAtPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func updatedAtValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

type AssistantMapper struct{}

func NewAssistantMapper() *AssistantMapper {
	return &AssistantMapper{}
}

func (m *AssistantMapper) ToEntity(a *model.Assistant) *entity.Assistant {
	if a == nil {
		return nil
	}
	return &entity.Assistant{
		Id:        a.Id,
		Name:      a.Name,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: updatedAtPtr(a.UpdatedAt),
	}
}

func (m *AssistantMapper) ToModel(a *entity.Assistant) *model.Assistant {
	if a == nil {
		return nil
	}
	return &model.Assistant{
		Id:        a.Id,
		Name:      a.Name,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: updatedAtValue(a.UpdatedAt),
	}
}

func (m *AssistantMapper) ToEntities(assistants []*model.Assistant) []*entity.Assistant {
	entities := make([]*entity.Assistant, len(assistants))
	for i, a := range assistants {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

type AssistantDocumentMapper struct{}

func NewAssistantDocumentMapper() *AssistantDocumentMapper {
	return &AssistantDocumentMapper{}
}

func (m *AssistantDocumentMapper) ToEntity(d *model.AssistantDocument) *entity.AssistantDocument {
	if d == nil {
		return nil
	}
	return &entity.AssistantDocument{
		Id:            d.Id,
		AssistantName: d.AssistantName,
		Filename:      d.Filename,
		FileType:      d.FileType,
		SizeBytes:     d.SizeBytes,
		Checksum:      d.Checksum,
		StoragePath:   d.StoragePath,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     updatedAtPtr(d.UpdatedAt),
	}
}

func (m *AssistantDocumentMapper) ToModel(d *entity.AssistantDocument) *model.AssistantDocument {
	if d == nil {
		return nil
	}
	return &model.AssistantDocument{
		Id:            d.Id,
		AssistantName: d.AssistantName,
		Filename:      d.Filename,
		FileType:      d.FileType,
		SizeBytes:     d.SizeBytes,
		Checksum:      d.Checksum,
		StoragePath:   d.StoragePath,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     updatedAtValue(d.UpdatedAt),
	}
}

func (m *AssistantDocumentMapper) ToEntities(docs []*model.AssistantDocument) []*entity.AssistantDocument {
	entities := make([]*entity.AssistantDocument, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

type AssistantFragmentMapper struct{}

func NewAssistantFragmentMapper() *AssistantFragmentMapper {
	return &AssistantFragmentMapper{}
}

func (m *AssistantFragmentMapper) ToEntity(f *model.AssistantFragment) *entity.AssistantFragment {
	if f == nil {
		return nil
	}
	return &entity.AssistantFragment{
		Id:             f.Id,
		AssistantName:  f.AssistantName,
		Filename:       f.Filename,
		ChunkIndex:     f.ChunkIndex,
		Page:           f.Page,
		Content:        f.Content,
		EmbeddingValue: f.EmbeddingValue.Slice(),
		Metadata:       map[string]interface{}(f.Metadata),
		CreatedAt:      f.CreatedAt,
	}
}

func (m *AssistantFragmentMapper) ToModel(f *entity.AssistantFragment) *model.AssistantFragment {
	if f == nil {
		return nil
	}
	return &model.AssistantFragment{
		Id:             f.Id,
		AssistantName:  f.AssistantName,
		Filename:       f.Filename,
		ChunkIndex:     f.ChunkIndex,
		Page:           f.Page,
		Content:        f.Content,
		EmbeddingValue: pgvector.NewVector(f.EmbeddingValue),
		Metadata:       datatypes.JSONMap(f.Metadata),
		CreatedAt:      f.CreatedAt,
	}
}
