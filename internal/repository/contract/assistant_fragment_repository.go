package contract

import (
	"context"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/repository/specification"
)

type AssistantFragmentRepository interface {
	CreateBulk(ctx context.Context, fragments []*entity.AssistantFragment) error
	DeleteByAssistant(ctx context.Context, assistantName string) error
	DeleteByFilenames(ctx context.Context, assistantName string, filenames []string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssistantFragment, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns the closest fragments of one assistant by cosine similarity.
	SearchSimilarWithScore(ctx context.Context, assistantName string, embedding []float32, limit int, threshold float64) ([]*entity.ScoredFragment, error)
}
