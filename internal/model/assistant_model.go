package model

import (
	"time"

	"github.com/google/uuid"
)

type Assistant struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	Status    string    `gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Assistant) TableName() string {
	return "assistants"
}

type AssistantDocument struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AssistantName string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_assistant_document"`
	Filename      string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_assistant_document"`
	FileType      string    `gorm:"type:varchar(16)"`
	SizeBytes     int64
	Checksum      string    `gorm:"type:varchar(128)"`
	StoragePath   string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (AssistantDocument) TableName() string {
	return "assistant_documents"
}
