// Package registry creates, extends and deletes assistants while keeping the corpus store, the
// retrieval index, the catalog and cached listings consistent with each other.
package registry

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/cache"
	"study-assistant-be/pkg/corpus"
	"study-assistant-be/pkg/events"
	"study-assistant-be/pkg/parser"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/engine"

	"golang.org/x/crypto/blake2b"
)

type File = engine.File

// AddResult reports which files were ingested and which were dropped as duplicates.
type AddResult struct {
	Added      []string `json:"added"`
	Duplicates []string `json:"duplicates"`
}

type Registry struct {
	store         corpus.Store
	engine        engine.Engine
	catalog       Catalog
	cache         cache.Cache
	publisher     events.Publisher
	conversations Conversations
	listLimits    []int
	logger        logger.ILogger
}

type Option func(*Registry)

// WithListLimits sets the escalating limits used when an exhaustive index listing is needed.
func WithListLimits(limits ...int) Option {
	return func(r *Registry) {
		if len(limits) > 0 {
			r.listLimits = limits
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) {
		if p != nil {
			r.publisher = p
		}
	}
}

func WithConversations(c Conversations) Option {
	return func(r *Registry) {
		r.conversations = c
	}
}

func New(store corpus.Store, eng engine.Engine, catalog Catalog, listings cache.Cache, log logger.ILogger, opts ...Option) *Registry {
	r := &Registry{
		store:      store,
		engine:     eng,
		catalog:    catalog,
		cache:      listings,
		publisher:  events.Nop{},
		listLimits: []int{100, 10000},
		logger:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// validateBatch checks the name and every filename before anything is touched.
func validateBatch(name string, files []File) error {
	if err := rag.ValidateAssistantName(name); err != nil {
		return err
	}
	if len(files) == 0 {
		return rag.ErrNoDocuments
	}
	for _, f := range files {
		if err := rag.ValidateFilename(f.Filename); err != nil {
			return fmt.Errorf("%q: %w", f.Filename, err)
		}
		if !parser.IsAllowed(f.Filename) {
			return fmt.Errorf("%q: %w", f.Filename, rag.ErrUnsupportedType)
		}
	}
	return nil
}

// CreateAssistant stores files under a new assistant and indexes the assistant's whole corpus.
// Creating a pending assistant again re-indexes everything on disk, which is how a failed
// ingestion is retried. A ready assistant is rejected with ErrAssistantExists.
func (r *Registry) CreateAssistant(ctx context.Context, name string, files []File) error {
	if err := validateBatch(name, files); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, dup := seen[f.Filename]; dup {
			return fmt.Errorf("%q: %w", f.Filename, rag.ErrDuplicateFilename)
		}
		seen[f.Filename] = struct{}{}
	}
	rec, err := r.catalog.GetAssistant(ctx, name)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if rec != nil && rec.Status == StatusReady {
		return fmt.Errorf("%q: %w", name, rag.ErrAssistantExists)
	}

	if err := r.store.EnsureDir(name); err != nil {
		return err
	}
	records, err := r.writeFiles(name, files)
	if err != nil {
		return err
	}
	if err := r.catalog.UpsertAssistant(ctx, name, StatusPending); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := r.catalog.PutDocuments(ctx, name, records); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	r.invalidate(ctx, name)

	corpusFiles, err := r.loadCorpus(name)
	if err != nil {
		return err
	}
	if missing := missingFrom(corpusFiles, files); len(missing) > 0 {
		cause := fmt.Errorf("not listed by the corpus store: %s", strings.Join(missing, ", "))
		return r.ingestionFailed(ctx, name, files, cause)
	}
	if err := r.engine.Ingest(ctx, name, corpusFiles, true); err != nil {
		return r.ingestionFailed(ctx, name, corpusFiles, err)
	}

	if err := r.catalog.SetStatus(ctx, name, StatusReady); err != nil {
		return fmt.Errorf("indexed but catalog status not updated: %w", err)
	}
	r.invalidate(ctx, name)

	r.logger.Info("REGISTRY", "Assistant created", map[string]interface{}{
		"assistant": name,
		"files":     len(corpusFiles),
	})
	r.publish(ctx, events.TypeAssistantCreated, map[string]interface{}{
		"assistant": name,
		"files":     filenames(corpusFiles),
	})
	return nil
}

// AddDocuments ingests the files whose names the index does not know yet. Names already
// indexed, or repeated within the batch, are reported as duplicates and never written.
func (r *Registry) AddDocuments(ctx context.Context, name string, files []File) (*AddResult, error) {
	if err := validateBatch(name, files); err != nil {
		return nil, err
	}
	rec, err := r.catalog.GetAssistant(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if rec == nil {
		return nil, rag.ErrAssistantNotFound
	}

	existing, err := r.ExistingFilenames(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}

	result := &AddResult{Added: []string{}, Duplicates: []string{}}
	fresh := make([]File, 0, len(files))
	for _, f := range files {
		if _, dup := existing[f.Filename]; dup {
			result.Duplicates = append(result.Duplicates, f.Filename)
			continue
		}
		existing[f.Filename] = struct{}{}
		fresh = append(fresh, f)
	}
	if len(result.Duplicates) > 0 {
		r.logger.Info("REGISTRY", "Duplicate documents dropped", map[string]interface{}{
			"assistant":  name,
			"duplicates": result.Duplicates,
		})
	}
	if len(fresh) == 0 {
		return result, nil
	}

	if err := r.store.EnsureDir(name); err != nil {
		return nil, err
	}
	records, err := r.writeFiles(name, fresh)
	if err != nil {
		return nil, err
	}
	if err := r.catalog.PutDocuments(ctx, name, records); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	r.invalidate(ctx, name)

	if err := r.engine.Ingest(ctx, name, fresh, false); err != nil {
		return nil, r.ingestionFailed(ctx, name, fresh, err)
	}
	r.invalidate(ctx, name)

	result.Added = filenames(fresh)
	r.logger.Info("REGISTRY", "Documents added", map[string]interface{}{
		"assistant": name,
		"added":     result.Added,
	})
	r.publish(ctx, events.TypeDocumentsAdded, map[string]interface{}{
		"assistant":  name,
		"added":      result.Added,
		"duplicates": result.Duplicates,
	})
	return result, nil
}

// ExistingFilenames returns the filenames the index holds for the assistant. If even the
// largest listing is truncated, catalog filenames are added so no indexed file is missed.
func (r *Registry) ExistingFilenames(ctx context.Context, name string) (map[string]struct{}, error) {
	chunks, truncated, err := r.listChunks(ctx, name)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{})
	for _, c := range chunks {
		names[c.Filename] = struct{}{}
	}
	if truncated {
		docs, err := r.catalog.ListDocuments(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		for _, d := range docs {
			names[d.Filename] = struct{}{}
		}
	}
	return names, nil
}

// listChunks re-queries with growing limits until the listing is complete or the last limit
// is reached.
func (r *Registry) listChunks(ctx context.Context, name string) ([]engine.IndexedChunk, bool, error) {
	var chunks []engine.IndexedChunk
	for _, limit := range r.listLimits {
		var err error
		chunks, err = r.engine.ListDocuments(ctx, name, limit)
		if err != nil {
			return nil, false, err
		}
		if len(chunks) < limit {
			return chunks, false, nil
		}
	}
	return chunks, true, nil
}

func (r *Registry) writeFiles(name string, files []File) ([]DocumentRecord, error) {
	records := make([]DocumentRecord, 0, len(files))
	for _, f := range files {
		if err := r.store.WriteFile(name, f.Filename, f.Content); err != nil {
			return nil, err
		}
		sum := blake2b.Sum256(f.Content)
		records = append(records, DocumentRecord{
			Filename:    f.Filename,
			FileType:    rag.FileType(f.Filename),
			SizeBytes:   int64(len(f.Content)),
			Checksum:    hex.EncodeToString(sum[:]),
			StoragePath: r.store.Path(name, f.Filename),
		})
	}
	return records, nil
}

func (r *Registry) loadCorpus(name string) ([]File, error) {
	names, err := r.store.ListFiles(name)
	if err != nil {
		return nil, err
	}
	files := make([]File, 0, len(names))
	for _, n := range names {
		data, err := r.store.ReadFile(name, n)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Filename: n, Content: data})
	}
	return files, nil
}

// ingestionFailed leaves written files in place; the assistant keeps its pending status.
func (r *Registry) ingestionFailed(ctx context.Context, name string, files []File, cause error) error {
	ierr := &rag.IngestionError{Assistant: name, Files: filenames(files), Err: cause}
	r.logger.Error("REGISTRY", "Ingestion failed", map[string]interface{}{
		"assistant": name,
		"files":     ierr.Files,
		"error":     cause.Error(),
	})
	r.publish(ctx, events.TypeIngestionFailed, map[string]interface{}{
		"assistant": name,
		"files":     ierr.Files,
		"error":     cause.Error(),
	})
	return ierr
}

func (r *Registry) invalidate(ctx context.Context, name string) error {
	if err := r.cache.Delete(ctx, cache.ListingKeys(name)...); err != nil {
		r.logger.Warn("REGISTRY", "Failed to invalidate listings", map[string]interface{}{
			"assistant": name,
			"error":     err.Error(),
		})
		return err
	}
	return nil
}

// InvalidateListings drops cached listings of the assistant, e.g. after an out-of-band corpus
// change.
func (r *Registry) InvalidateListings(ctx context.Context, name string) error {
	return r.invalidate(ctx, name)
}

func (r *Registry) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := r.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		r.logger.Warn("REGISTRY", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

// missingFrom lists the submitted filenames the corpus listing does not return.
func missingFrom(corpusFiles, submitted []File) []string {
	have := make(map[string]struct{}, len(corpusFiles))
	for _, f := range corpusFiles {
		have[f.Filename] = struct{}{}
	}
	var missing []string
	for _, f := range submitted {
		if _, ok := have[f.Filename]; !ok {
			missing = append(missing, f.Filename)
		}
	}
	return missing
}

func filenames(files []File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	return names
}

func stepNames(failed []rag.StepFailure) string {
	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.Step
	}
	return strings.Join(names, ",")
}
