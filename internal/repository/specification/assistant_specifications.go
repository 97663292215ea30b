package specification

import "gorm.io/gorm"

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

type ByAssistantName struct {
	AssistantName string
}

func (s ByAssistantName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("assistant_name = ?", s.AssistantName)
}

type ByFilename struct {
	Filename string
}

func (s ByFilename) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("filename = ?", s.Filename)
}

type ByFilenames struct {
	Filenames []string
}

func (s ByFilenames) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("filename IN ?", s.Filenames)
}

// WithoutEmbedding skips loading the vector column for listings.
type WithoutEmbedding struct{}

func (s WithoutEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Omit("embedding_value")
}
