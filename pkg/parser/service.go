package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceParser sends binary documents (PDF, DOCX) to an extraction service over HTTP.
// The service answers {"pages": ["...", ...]} or {"text": "..."} or {"error": "..."}.
type ServiceParser struct {
	serviceURL string
	client     *http.Client
}

func NewServiceParser(serviceURL string) *ServiceParser {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	return &ServiceParser{
		serviceURL: serviceURL,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

type parseResponse struct {
	Text  string   `json:"text"`
	Pages []string `json:"pages"`
	Error string   `json:"error,omitempty"`
}

func (p *ServiceParser) Parse(ctx context.Context, filename string, data []byte) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling parse service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%s: parse error: %s", filename, result.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: parse service status %d", filename, resp.StatusCode)
	}

	doc := &Document{Filename: filename}
	if len(result.Pages) > 0 {
		for i, text := range result.Pages {
			doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: text})
		}
		return doc, nil
	}
	doc.Pages = []Page{{Number: 0, Text: result.Text}}
	return doc, nil
}

func (p *ServiceParser) SupportedExtensions() []string {
	return []string{".pdf", ".docx"}
}
