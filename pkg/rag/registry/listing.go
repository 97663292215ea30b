package registry

import (
	"context"
	"sort"
	"strings"

	"study-assistant-be/pkg/cache"
	"study-assistant-be/pkg/rag"
)

type AssistantSummary struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

type DocumentSummary struct {
	Filename  string `json:"filename"`
	FileType  string `json:"file_type"`
	Chunks    int    `json:"chunks"`
	Indexed   bool   `json:"indexed"`
	SizeBytes int64  `json:"size_bytes"`
}

// DocumentListing is sorted by filename. Truncated is set when the index holds more chunks
// than the largest listing limit, in which case chunk counts are lower bounds.
type DocumentListing struct {
	Documents []DocumentSummary `json:"documents"`
	Truncated bool              `json:"truncated"`
}

type Download struct {
	Filename string
	MIME     string
	Content  []byte
}

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MIMEType maps a filename to a download content type, defaulting to octet-stream.
func MIMEType(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		if m, ok := mimeTypes[strings.ToLower(filename[i:])]; ok {
			return m
		}
	}
	return "application/octet-stream"
}

// Lookup returns the catalog record of the assistant or ErrAssistantNotFound.
func (r *Registry) Lookup(ctx context.Context, name string) (*AssistantRecord, error) {
	if err := rag.ValidateAssistantName(name); err != nil {
		return nil, err
	}
	rec, err := r.catalog.GetAssistant(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, rag.ErrAssistantNotFound
	}
	return rec, nil
}

func (r *Registry) ListAssistants(ctx context.Context) ([]AssistantSummary, error) {
	var cached []AssistantSummary
	if ok, err := r.cache.Get(ctx, cache.AssistantsKey(), &cached); err == nil && ok {
		return cached, nil
	}

	records, err := r.catalog.ListAssistants(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AssistantSummary, len(records))
	for i, rec := range records {
		chunks, _, err := r.listChunks(ctx, rec.Name)
		if err != nil {
			return nil, err
		}
		out[i] = AssistantSummary{Name: rec.Name, Status: rec.Status, Documents: rec.Documents, Chunks: len(chunks)}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if err := r.cache.Set(ctx, cache.AssistantsKey(), out); err != nil {
		r.logger.Warn("REGISTRY", "Failed to cache assistants", map[string]interface{}{"error": err.Error()})
	}
	return out, nil
}

// ListDocuments merges the index listing with the catalog so documents whose ingestion failed
// still show up with zero chunks.
func (r *Registry) ListDocuments(ctx context.Context, name string) (*DocumentListing, error) {
	if err := rag.ValidateAssistantName(name); err != nil {
		return nil, err
	}
	key := cache.DocumentsKey(name)
	var cached DocumentListing
	if ok, err := r.cache.Get(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}

	rec, err := r.catalog.GetAssistant(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, rag.ErrAssistantNotFound
	}

	chunks, truncated, err := r.listChunks(ctx, name)
	if err != nil {
		return nil, err
	}
	docs, err := r.catalog.ListDocuments(ctx, name)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*DocumentSummary)
	for _, c := range chunks {
		s, ok := byName[c.Filename]
		if !ok {
			s = &DocumentSummary{Filename: c.Filename, FileType: rag.FileType(c.Filename), Indexed: true}
			byName[c.Filename] = s
		}
		s.Chunks++
	}
	for _, d := range docs {
		s, ok := byName[d.Filename]
		if !ok {
			s = &DocumentSummary{Filename: d.Filename, FileType: rag.FileType(d.Filename)}
			byName[d.Filename] = s
		}
		s.SizeBytes = d.SizeBytes
	}

	listing := &DocumentListing{Documents: make([]DocumentSummary, 0, len(byName)), Truncated: truncated}
	for _, s := range byName {
		listing.Documents = append(listing.Documents, *s)
	}
	sort.Slice(listing.Documents, func(i, j int) bool {
		return listing.Documents[i].Filename < listing.Documents[j].Filename
	})

	if err := r.cache.Set(ctx, key, listing); err != nil {
		r.logger.Warn("REGISTRY", "Failed to cache documents", map[string]interface{}{
			"assistant": name,
			"error":     err.Error(),
		})
	}
	return listing, nil
}

func (r *Registry) ReadDocument(ctx context.Context, name, filename string) (*Download, error) {
	if err := rag.ValidateAssistantName(name); err != nil {
		return nil, err
	}
	if err := rag.ValidateFilename(filename); err != nil {
		return nil, err
	}
	data, err := r.store.ReadFile(name, filename)
	if err != nil {
		return nil, err
	}
	return &Download{Filename: filename, MIME: MIMEType(filename), Content: data}, nil
}
