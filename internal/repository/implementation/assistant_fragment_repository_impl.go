package implementation

import (
	"context"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/mapper"
	"study-assistant-be/internal/model"
	"study-assistant-be/internal/repository/contract"
	"study-assistant-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type AssistantFragmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AssistantFragmentMapper
}

func NewAssistantFragmentRepository(db *gorm.DB) contract.AssistantFragmentRepository {
	return &AssistantFragmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAssistantFragmentMapper(),
	}
}

func (r *AssistantFragmentRepositoryImpl) CreateBulk(ctx context.Context, fragments []*entity.AssistantFragment) error {
	if len(fragments) == 0 {
		return nil
	}
	models := make([]*model.AssistantFragment, len(fragments))
	for i, f := range fragments {
		models[i] = r.mapper.ToModel(f)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, 200).Error; err != nil {
		return err
	}

	for i, m := range models {
		*fragments[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *AssistantFragmentRepositoryImpl) DeleteByAssistant(ctx context.Context, assistantName string) error {
	return applySpecifications(r.db.WithContext(ctx),
		specification.ByAssistantName{AssistantName: assistantName},
	).Delete(&model.AssistantFragment{}).Error
}

func (r *AssistantFragmentRepositoryImpl) DeleteByFilenames(ctx context.Context, assistantName string, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}
	return applySpecifications(r.db.WithContext(ctx),
		specification.ByAssistantName{AssistantName: assistantName},
		specification.ByFilenames{Filenames: filenames},
	).Delete(&model.AssistantFragment{}).Error
}

func (r *AssistantFragmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssistantFragment, error) {
	var models []*model.AssistantFragment
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.AssistantFragment, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *AssistantFragmentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.AssistantFragment{}).Count(&count).Error
	return count, err
}

func (r *AssistantFragmentRepositoryImpl) SearchSimilarWithScore(ctx context.Context, assistantName string, embedding []float32, limit int, threshold float64) ([]*entity.ScoredFragment, error) {
	if limit <= 0 {
		limit = 5
	}

	// pgvector's <=> is cosine distance, so similarity = 1 - distance
	type result struct {
		model.AssistantFragment
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("assistant_fragments").
		Select("assistant_fragments.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("assistant_name = ?", assistantName).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredFragment, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredFragment{
			Fragment:   r.mapper.ToEntity(&res.AssistantFragment),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
