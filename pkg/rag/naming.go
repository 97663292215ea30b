package rag

import (
	"path/filepath"
	"regexp"
	"strings"
)

var assistantNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// IsValidAssistantName reports whether name satisfies the assistant naming invariant.
func IsValidAssistantName(name string) bool {
	return assistantNamePattern.MatchString(name)
}

// ValidateAssistantName returns ErrInvalidName for names outside [a-z0-9-]+.
func ValidateAssistantName(name string) error {
	if !IsValidAssistantName(name) {
		return ErrInvalidName
	}
	return nil
}

// ValidateFilename rejects names that would escape the assistant's directory, and hidden
// names, which the corpus store reserves for in-flight writes.
func ValidateFilename(name string) error {
	if name == "" || strings.HasPrefix(name, ".") {
		return ErrInvalidFilename
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return ErrInvalidFilename
	}
	return nil
}

// FileType returns the upper-cased extension of a filename, or "UNKNOWN".
func FileType(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(ext)
}
