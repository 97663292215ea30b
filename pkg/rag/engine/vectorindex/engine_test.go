package vectorindex

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"study-assistant-be/internal/entity"
	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/internal/repository/contract"
	"study-assistant-be/internal/repository/specification"
	"study-assistant-be/internal/repository/unitofwork"
	"study-assistant-be/pkg/embedding"
	"study-assistant-be/pkg/llm"
	"study-assistant-be/pkg/parser"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFragments keeps committed rows; a transaction stages writes until Commit.
type memFragments struct {
	rows     []*entity.AssistantFragment
	scored   []*entity.ScoredFragment
	commits  int
	failBulk bool
}

type memUoW struct {
	store  *memFragments
	staged []*entity.AssistantFragment
	inTx   bool
}

type memFactory struct{ store *memFragments }

func (f memFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &memUoW{store: f.store}
}

func (u *memUoW) Begin(context.Context) error {
	u.inTx = true
	u.staged = append([]*entity.AssistantFragment(nil), u.store.rows...)
	return nil
}

func (u *memUoW) Commit() error {
	u.store.rows = u.staged
	u.store.commits++
	u.inTx = false
	return nil
}

func (u *memUoW) Rollback() error {
	u.inTx = false
	return nil
}

func (u *memUoW) AssistantRepository() contract.AssistantRepository { return nil }
func (u *memUoW) AssistantDocumentRepository() contract.AssistantDocumentRepository {
	return nil
}
func (u *memUoW) AssistantFragmentRepository() contract.AssistantFragmentRepository {
	return memRepo{u}
}

type memRepo struct{ u *memUoW }

func (r memRepo) target() *[]*entity.AssistantFragment {
	if r.u.inTx {
		return &r.u.staged
	}
	return &r.u.store.rows
}

func (r memRepo) CreateBulk(_ context.Context, frags []*entity.AssistantFragment) error {
	if r.u.store.failBulk {
		return errors.New("disk full")
	}
	*r.target() = append(*r.target(), frags...)
	return nil
}

func (r memRepo) filter(keep func(*entity.AssistantFragment) bool) {
	rows := r.target()
	out := (*rows)[:0:0]
	for _, f := range *rows {
		if keep(f) {
			out = append(out, f)
		}
	}
	*rows = out
}

func (r memRepo) DeleteByAssistant(_ context.Context, name string) error {
	r.filter(func(f *entity.AssistantFragment) bool { return f.AssistantName != name })
	return nil
}

func (r memRepo) DeleteByFilenames(_ context.Context, name string, filenames []string) error {
	drop := make(map[string]bool)
	for _, n := range filenames {
		drop[n] = true
	}
	r.filter(func(f *entity.AssistantFragment) bool { return f.AssistantName != name || !drop[f.Filename] })
	return nil
}

// FindAll understands the assistant filter and the limit; ordering is by filename then chunk.
func (r memRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.AssistantFragment, error) {
	var name string
	limit := -1
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByAssistantName:
			name = v.AssistantName
		case specification.Pagination:
			limit = v.Limit
		}
	}
	var out []*entity.AssistantFragment
	for _, f := range *r.target() {
		if f.AssistantName == name {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Filename != out[j].Filename {
			return out[i].Filename < out[j].Filename
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.FindAll(ctx, specs...)
	return int64(len(rows)), err
}

func (r memRepo) SearchSimilarWithScore(context.Context, string, []float32, int, float64) ([]*entity.ScoredFragment, error) {
	return r.u.store.scored, nil
}

type constEmbedder struct{ tasks []string }

func (e *constEmbedder) Generate(_ context.Context, _ string, task string) (*embedding.EmbeddingResponse, error) {
	e.tasks = append(e.tasks, task)
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

type echoLLM struct{ got []llm.Message }

func (l *echoLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	l.got = history
	return "  the answer  ", nil
}

func (l *echoLLM) Name() string { return "echo" }

func newEngine(store *memFragments) (*Engine, *constEmbedder, *echoLLM) {
	emb := &constEmbedder{}
	model := &echoLLM{}
	e := New(memFactory{store}, parser.NewRegistry(parser.NewTextParser()), emb, model,
		Options{ChunkSize: 20}, logger.NewNopLogger())
	return e, emb, model
}

func files(pairs ...string) []engine.File {
	var out []engine.File
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, engine.File{Filename: pairs[i], Content: []byte(pairs[i+1])})
	}
	return out
}

func TestIngest_ReplaceAndAdditive(t *testing.T) {
	store := &memFragments{}
	e, emb, _ := newEngine(store)
	ctx := context.Background()

	require.NoError(t, e.Ingest(ctx, "bio", files("a.txt", strings.Repeat("cells ", 8)), true))
	first, err := e.ListDocuments(ctx, "bio", 100)
	require.NoError(t, err)
	assert.Greater(t, len(first), 1)
	assert.Equal(t, embedding.TaskRetrievalDocument, emb.tasks[0])

	require.NoError(t, e.Ingest(ctx, "bio", files("b.txt", "genes"), false))
	counts := engine.ChunksByFile(mustList(t, e, "bio"))
	assert.Equal(t, len(first), counts["a.txt"])
	assert.Equal(t, 1, counts["b.txt"])

	// re-adding a known filename replaces its chunks
	require.NoError(t, e.Ingest(ctx, "bio", files("b.txt", "genes again"), false))
	assert.Equal(t, 1, engine.ChunksByFile(mustList(t, e, "bio"))["b.txt"])

	require.NoError(t, e.Ingest(ctx, "bio", files("c.txt", "only this"), true))
	assert.Equal(t, map[string]int{"c.txt": 1}, engine.ChunksByFile(mustList(t, e, "bio")))
}

func TestIngest_FailureLeavesIndexUntouched(t *testing.T) {
	store := &memFragments{}
	e, _, _ := newEngine(store)
	ctx := context.Background()
	require.NoError(t, e.Ingest(ctx, "bio", files("a.txt", "cells"), true))

	store.failBulk = true
	err := e.Ingest(ctx, "bio", files("b.txt", "genes"), true)

	require.Error(t, err)
	assert.Equal(t, map[string]int{"a.txt": 1}, engine.ChunksByFile(mustList(t, e, "bio")))
	assert.Equal(t, 1, store.commits)
}

func TestIngest_NothingExtracted(t *testing.T) {
	e, _, _ := newEngine(&memFragments{})

	err := e.Ingest(context.Background(), "bio", files("blank.txt", "   "), true)

	assert.ErrorIs(t, err, engine.ErrNothingIndexed)
}

func TestIngest_UnsupportedType(t *testing.T) {
	e, _, _ := newEngine(&memFragments{})

	err := e.Ingest(context.Background(), "bio", files("scan.pdf", "%PDF"), true)

	assert.ErrorIs(t, err, rag.ErrUnsupportedType)
}

func TestQuery_ReturnsFragmentsAndPromptsWithHistory(t *testing.T) {
	page := 2
	store := &memFragments{scored: []*entity.ScoredFragment{{
		Fragment:   &entity.AssistantFragment{Filename: "a.txt", Content: "mitochondria", ChunkIndex: 3, Page: &page},
		Similarity: 0.9,
	}}}
	e, emb, model := newEngine(store)
	history := []rag.HistoryEntry{{Role: rag.RoleHuman, Text: "hi"}, {Role: rag.RoleAI, Text: "hello"}}

	ans, err := e.Query(context.Background(), "bio", "powerhouse?", history)

	require.NoError(t, err)
	assert.Equal(t, "the answer", ans.Text)
	require.Len(t, ans.Fragments, 1)
	assert.Equal(t, "a.txt", ans.Fragments[0].Filename)
	assert.Equal(t, &page, ans.Fragments[0].Page)
	assert.Equal(t, 0.9, ans.Fragments[0].Metadata["similarity"])
	assert.Equal(t, embedding.TaskRetrievalQuery, emb.tasks[len(emb.tasks)-1])
	require.Len(t, model.got, 3)
	assert.Contains(t, model.got[2].Content, "mitochondria")
	assert.Contains(t, model.got[2].Content, "powerhouse?")
}

func TestDeleteDocumentAndAssistant(t *testing.T) {
	store := &memFragments{}
	e, _, _ := newEngine(store)
	ctx := context.Background()
	require.NoError(t, e.Ingest(ctx, "bio", files("a.txt", "x", "b.txt", "y"), true))
	require.NoError(t, e.Ingest(ctx, "chem", files("c.txt", "z"), true))

	require.NoError(t, e.DeleteDocument(ctx, "bio", "a.txt"))
	assert.Equal(t, map[string]int{"b.txt": 1}, engine.ChunksByFile(mustList(t, e, "bio")))

	require.NoError(t, e.DeleteAssistant(ctx, "bio"))
	assert.Empty(t, mustList(t, e, "bio"))
	assert.Len(t, mustList(t, e, "chem"), 1)
}

func mustList(t *testing.T, e *Engine, assistant string) []engine.IndexedChunk {
	t.Helper()
	chunks, err := e.ListDocuments(context.Background(), assistant, 1000)
	require.NoError(t, err)
	return chunks
}
