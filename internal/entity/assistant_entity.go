package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	AssistantStatusPending = "pending"
	AssistantStatusReady   = "ready"
)

type Assistant struct {
	Id        uuid.UUID
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type AssistantDocument struct {
	Id            uuid.UUID
	AssistantName string
	Filename      string
	FileType      string
	SizeBytes     int64
	Checksum      string
	StoragePath   string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

type AssistantFragment struct {
	Id             uuid.UUID
	AssistantName  string
	Filename       string
	ChunkIndex     int
	Page           *int
	Content        string
	EmbeddingValue []float32
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

// ScoredFragment pairs a fragment with its cosine similarity to the query (1.0 = identical).
type ScoredFragment struct {
	Fragment   *AssistantFragment
	Similarity float64
}
