// Package vectorindex is the retrieval engine backed by postgres + pgvector and an LLM.
package vectorindex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/internal/repository/specification"
	"study-assistant-be/internal/repository/unitofwork"
	"study-assistant-be/pkg/embedding"
	"study-assistant-be/pkg/llm"
	"study-assistant-be/pkg/parser"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/engine"
	"study-assistant-be/pkg/rag/prompt"
	"study-assistant-be/pkg/utils"

	"github.com/google/uuid"
)

// DocumentParser turns uploaded bytes into page text.
type DocumentParser interface {
	Parse(ctx context.Context, filename string, data []byte) (*parser.Document, error)
}

type Options struct {
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float64
	Temperature         float64
}

// Engine indexes chunks in postgres with pgvector and answers through an LLM.
type Engine struct {
	uowFactory unitofwork.RepositoryFactory
	parser     DocumentParser
	embedder   embedding.EmbeddingProvider
	llm        llm.LLMProvider
	opts       Options
	logger     logger.ILogger
}

var _ engine.Engine = (*Engine)(nil)

func New(
	uowFactory unitofwork.RepositoryFactory,
	parser DocumentParser,
	embedder embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	opts Options,
	log logger.ILogger,
) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1500
	}
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &Engine{
		uowFactory: uowFactory,
		parser:     parser,
		embedder:   embedder,
		llm:        llmProvider,
		opts:       opts,
		logger:     log,
	}
}

func (e *Engine) Ingest(ctx context.Context, assistant string, files []engine.File, deleteExisting bool) error {
	var fragments []*entity.AssistantFragment
	filenames := make([]string, 0, len(files))

	for _, f := range files {
		filenames = append(filenames, f.Filename)
		chunks, err := e.embedFile(ctx, assistant, f)
		if err != nil {
			return err
		}
		fragments = append(fragments, chunks...)
	}
	if len(files) > 0 && len(fragments) == 0 {
		return engine.ErrNothingIndexed
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin ingest: %w", err)
	}
	defer uow.Rollback()

	repo := uow.AssistantFragmentRepository()
	if deleteExisting {
		if err := repo.DeleteByAssistant(ctx, assistant); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	} else if err := repo.DeleteByFilenames(ctx, assistant, filenames); err != nil {
		// Re-ingesting the same filename replaces its chunks instead of doubling them.
		return fmt.Errorf("clear previous chunks: %w", err)
	}
	if err := repo.CreateBulk(ctx, fragments); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit ingest: %w", err)
	}

	e.logger.Info("ENGINE", "Ingested documents", map[string]interface{}{
		"assistant":       assistant,
		"files":           len(files),
		"chunks":          len(fragments),
		"delete_existing": deleteExisting,
	})
	return nil
}

func (e *Engine) embedFile(ctx context.Context, assistant string, f engine.File) ([]*entity.AssistantFragment, error) {
	doc, err := e.parser.Parse(ctx, f.Filename, f.Content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Filename, err)
	}

	var out []*entity.AssistantFragment
	index := 0
	for _, page := range doc.Pages {
		for _, chunk := range utils.SplitText(page.Text, e.opts.ChunkSize, e.opts.ChunkOverlap) {
			res, err := e.embedder.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
			if err != nil {
				return nil, fmt.Errorf("embed %s chunk %d: %w", f.Filename, index, err)
			}

			var pageNo *int
			if page.Number > 0 {
				n := page.Number
				pageNo = &n
			}
			out = append(out, &entity.AssistantFragment{
				Id:             uuid.New(),
				AssistantName:  assistant,
				Filename:       f.Filename,
				ChunkIndex:     index,
				Page:           pageNo,
				Content:        chunk,
				EmbeddingValue: res.Embedding.Values,
				Metadata: map[string]interface{}{
					"file_type": rag.FileType(f.Filename),
				},
				CreatedAt: time.Now(),
			})
			index++
		}
	}
	return out, nil
}

func (e *Engine) Query(ctx context.Context, assistant, text string, history []rag.HistoryEntry) (*engine.Answer, error) {
	res, err := e.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.AssistantFragmentRepository().SearchSimilarWithScore(ctx, assistant, res.Embedding.Values, e.opts.TopK, e.opts.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	fragments := make([]rag.Fragment, 0, len(scored))
	for _, s := range scored {
		meta := make(map[string]interface{}, len(s.Fragment.Metadata)+2)
		for k, v := range s.Fragment.Metadata {
			meta[k] = v
		}
		meta["similarity"] = s.Similarity
		meta["chunk_index"] = s.Fragment.ChunkIndex
		fragments = append(fragments, rag.Fragment{
			Filename: s.Fragment.Filename,
			Content:  s.Fragment.Content,
			Page:     s.Fragment.Page,
			Metadata: meta,
		})
	}

	messages := prompt.HistoryMessages(history)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: prompt.NewContextualBuilder(fragments, text).Build(),
	})

	answer, err := e.llm.Chat(ctx, messages, llm.WithTemperature(e.opts.Temperature))
	if err != nil {
		return nil, fmt.Errorf("llm %s: %w", e.llm.Name(), err)
	}

	e.logger.Debug("ENGINE", "Answered query", map[string]interface{}{
		"assistant": assistant,
		"model":     e.llm.Name(),
		"fragments": len(fragments),
	})
	return &engine.Answer{Text: strings.TrimSpace(answer), Fragments: fragments}, nil
}

func (e *Engine) ListDocuments(ctx context.Context, assistant string, limit int) ([]engine.IndexedChunk, error) {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.AssistantFragmentRepository().FindAll(ctx,
		specification.WithoutEmbedding{},
		specification.ByAssistantName{AssistantName: assistant},
		specification.OrderBy{Field: "filename"},
		specification.OrderBy{Field: "chunk_index"},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	chunks := make([]engine.IndexedChunk, len(rows))
	for i, r := range rows {
		chunks[i] = engine.IndexedChunk{
			Filename:   r.Filename,
			ChunkIndex: r.ChunkIndex,
			Page:       r.Page,
			Metadata:   r.Metadata,
		}
	}
	return chunks, nil
}

func (e *Engine) DeleteAssistant(ctx context.Context, assistant string) error {
	return e.uowFactory.NewUnitOfWork(ctx).AssistantFragmentRepository().DeleteByAssistant(ctx, assistant)
}

func (e *Engine) DeleteDocument(ctx context.Context, assistant, filename string) error {
	return e.uowFactory.NewUnitOfWork(ctx).AssistantFragmentRepository().DeleteByFilenames(ctx, assistant, []string{filename})
}
