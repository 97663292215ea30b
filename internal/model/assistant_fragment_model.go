package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// AssistantFragment is one indexed chunk of a document. Rows are hard-deleted so a retried
// delete never finds soft-deleted leftovers.
type AssistantFragment struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AssistantName  string    `gorm:"type:varchar(128);not null;index:idx_fragment_assistant_file"`
	Filename       string    `gorm:"type:varchar(512);not null;index:idx_fragment_assistant_file"`
	ChunkIndex     int       `gorm:"default:0"`
	Page           *int
	Content        string            `gorm:"type:text"`
	EmbeddingValue pgvector.Vector   `gorm:"type:vector(768)"` // nomic-embed-text
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
}

func (AssistantFragment) TableName() string {
	return "assistant_fragments"
}
