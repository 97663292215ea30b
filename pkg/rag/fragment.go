package rag

import "strings"

const (
	// UnknownFilename stands in for fragments the engine returned without a source file.
	UnknownFilename = "unknown"

	// FragmentKeyPrefixLen is the number of leading runes of content used in a FragmentKey.
	FragmentKeyPrefixLen = 30
)

// Fragment is a unit of retrieved content with its source attribution.
// Values are immutable once produced by the retrieval engine.
type Fragment struct {
	Filename string                 `json:"filename"`
	Content  string                 `json:"content"`
	Page     *int                   `json:"page,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// FragmentKey identifies a fragment for attribution purposes: two fragments from the same
// file with identical leading content are the same fragment.
type FragmentKey struct {
	Filename string
	Prefix   string
}

// String renders the key the way it is shown in logs and API payloads.
func (k FragmentKey) String() string {
	return k.Filename + "_" + k.Prefix
}

// SourceFile returns the filename used for grouping, falling back to UnknownFilename.
func (f Fragment) SourceFile() string {
	if strings.TrimSpace(f.Filename) == "" {
		return UnknownFilename
	}
	return f.Filename
}

// Key derives the deduplication key of the fragment.
func (f Fragment) Key() FragmentKey {
	return KeyWithPrefix(f, FragmentKeyPrefixLen)
}

// KeyWithPrefix derives a deduplication key using the first n runes of content.
func KeyWithPrefix(f Fragment, n int) FragmentKey {
	runes := []rune(f.Content)
	if n >= 0 && len(runes) > n {
		runes = runes[:n]
	}
	return FragmentKey{Filename: f.SourceFile(), Prefix: string(runes)}
}

// Role tags an entry of the raw conversation history.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// HistoryEntry is one element of the ordered history handed to the retrieval engine.
type HistoryEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
