// Package parser extracts plain text from uploaded documents before they are chunked.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"study-assistant-be/pkg/rag"
)

var ErrUnsupportedType = rag.ErrUnsupportedType

// AllowedExtensions are the upload types the service accepts.
var AllowedExtensions = []string{".pdf", ".docx", ".txt", ".md"}

// Page is the text of one page. Number is 1-based; 0 means the format has no pages.
type Page struct {
	Number int
	Text   string
}

type Document struct {
	Filename string
	Pages    []Page
}

// Text joins every page.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

type Parser interface {
	Parse(ctx context.Context, filename string, data []byte) (*Document, error)
	SupportedExtensions() []string
}

// IsAllowed reports whether filename has an accepted upload extension.
func IsAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// TextParser handles .txt and .md files.
type TextParser struct{}

func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Parse(_ context.Context, filename string, data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: not valid UTF-8 text", filename)
	}
	return &Document{Filename: filename, Pages: []Page{{Number: 0, Text: string(data)}}}, nil
}

func (p *TextParser) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// Registry picks a parser by file extension.
type Registry struct {
	byExt map[string]Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{byExt: make(map[string]Parser)}
	for _, p := range parsers {
		if p == nil {
			continue
		}
		for _, ext := range p.SupportedExtensions() {
			r.byExt[ext] = p
		}
	}
	return r
}

func (r *Registry) Parse(ctx context.Context, filename string, data []byte) (*Document, error) {
	p, ok := r.byExt[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedType)
	}
	return p.Parse(ctx, filename, data)
}
