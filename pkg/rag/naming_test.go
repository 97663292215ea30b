package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFilename(t *testing.T) {
	for _, name := range []string{"notes.md", "Chapter 1.pdf", "a.b.txt"} {
		assert.NoError(t, ValidateFilename(name), name)
	}
	for _, name := range []string{"", ".", "..", ".notes.md", "../x.txt", "dir/x.txt", `dir\x.txt`} {
		assert.ErrorIs(t, ValidateFilename(name), ErrInvalidFilename, name)
	}
}

func TestValidateAssistantName(t *testing.T) {
	assert.NoError(t, ValidateAssistantName("study-notes-2"))
	assert.ErrorIs(t, ValidateAssistantName("Study"), ErrInvalidName)
	assert.ErrorIs(t, ValidateAssistantName(""), ErrInvalidName)
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "PDF", FileType("intro.pdf"))
	assert.Equal(t, "UNKNOWN", FileType("README"))
}
