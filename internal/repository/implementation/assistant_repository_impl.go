package implementation

import (
	"context"
	"errors"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/mapper"
	"study-assistant-be/internal/model"
	"study-assistant-be/internal/repository/contract"
	"study-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

type AssistantRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AssistantMapper
}

func NewAssistantRepository(db *gorm.DB) contract.AssistantRepository {
	return &AssistantRepositoryImpl{
		db:     db,
		mapper: mapper.NewAssistantMapper(),
	}
}

func (r *AssistantRepositoryImpl) Upsert(ctx context.Context, assistant *entity.Assistant) error {
	m := r.mapper.ToModel(assistant)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*assistant = *r.mapper.ToEntity(m)
	return nil
}

func (r *AssistantRepositoryImpl) UpdateStatus(ctx context.Context, name, status string) error {
	return r.db.WithContext(ctx).Model(&model.Assistant{}).
		Where("name = ?", name).
		Update("status", status).Error
}

func (r *AssistantRepositoryImpl) DeleteByName(ctx context.Context, name string) error {
	return applySpecifications(r.db.WithContext(ctx), specification.ByName{Name: name}).Delete(&model.Assistant{}).Error
}

func (r *AssistantRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Assistant, error) {
	var m model.Assistant
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AssistantRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Assistant, error) {
	var models []*model.Assistant
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

type AssistantDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AssistantDocumentMapper
}

func NewAssistantDocumentRepository(db *gorm.DB) contract.AssistantDocumentRepository {
	return &AssistantDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAssistantDocumentMapper(),
	}
}

func (r *AssistantDocumentRepositoryImpl) UpsertBulk(ctx context.Context, docs []*entity.AssistantDocument) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]*model.AssistantDocument, len(docs))
	for i, d := range docs {
		models[i] = r.mapper.ToModel(d)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assistant_name"}, {Name: "filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_type", "size_bytes", "checksum", "storage_path", "updated_at"}),
	}).Create(models).Error
	if err != nil {
		return err
	}
	for i, m := range models {
		*docs[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *AssistantDocumentRepositoryImpl) DeleteByAssistant(ctx context.Context, assistantName string) error {
	return r.db.WithContext(ctx).Where("assistant_name = ?", assistantName).Delete(&model.AssistantDocument{}).Error
}

func (r *AssistantDocumentRepositoryImpl) DeleteByFilename(ctx context.Context, assistantName, filename string) error {
	return applySpecifications(r.db.WithContext(ctx),
		specification.ByAssistantName{AssistantName: assistantName},
		specification.ByFilename{Filename: filename},
	).Delete(&model.AssistantDocument{}).Error
}

func (r *AssistantDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssistantDocument, error) {
	var models []*model.AssistantDocument
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AssistantDocumentRepositoryImpl) CountByAssistant(ctx context.Context) ([]contract.DocumentCount, error) {
	var counts []contract.DocumentCount
	err := r.db.WithContext(ctx).Model(&model.AssistantDocument{}).
		Select("assistant_name, count(*) as count").
		Group("assistant_name").
		Scan(&counts).Error
	return counts, err
}
