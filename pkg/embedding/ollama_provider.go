package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"study-assistant-be/pkg/llm"
)

// IndexDimensions is the width of the vector column fragments are stored in.
const IndexDimensions = 768

// OllamaProvider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	BaseURL    string
	Model      string
	Dimensions int // rejects vectors of any other width when set
	Client     *http.Client
}

func NewOllamaProvider(baseURL string, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Model:      model,
		Dimensions: IndexDimensions,
		Client:     &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// nomic-embed-text expects the task as a text prefix.
var taskPrefixes = map[string]string{
	TaskRetrievalDocument: "search_document: ",
	TaskRetrievalQuery:    "search_query: ",
}

func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	var resp ollamaEmbeddingResponse
	err := llm.PostJSON(ctx, p.Client, "ollama embeddings", p.BaseURL+"/api/embeddings", nil, ollamaEmbeddingRequest{
		Model:  p.Model,
		Prompt: taskPrefixes[taskType] + text,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embeddings: empty vector")
	}
	if p.Dimensions > 0 && len(resp.Embedding) != p.Dimensions {
		return nil, fmt.Errorf("ollama embeddings: got %d dimensions, index expects %d", len(resp.Embedding), p.Dimensions)
	}

	values := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		values[i] = float32(v)
	}

	// pgvector cosine distance expects unit vectors
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: normalizeVector(values),
		},
	}, nil
}

func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
