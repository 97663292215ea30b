package ledger

import (
	"strings"
	"testing"

	"study-assistant-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frag(file, content string) rag.Fragment {
	return rag.Fragment{Filename: file, Content: content}
}

func TestAttribute_SameKeyAcrossTurns(t *testing.T) {
	l := New()
	f := frag("intro.pdf", "Photosynthesis converts light energy into chemical energy.")

	l.Attribute(0, []rag.Fragment{f})
	l.Attribute(1, []rag.Fragment{f})

	assert.Equal(t, 1, l.Len(), "union should hold one entry")
	assert.Len(t, l.FragmentsForTurn(0), 1)
	assert.Len(t, l.FragmentsForTurn(1), 1)
}

func TestAttribute_FirstSeenWins(t *testing.T) {
	l := New()
	prefix := strings.Repeat("a", rag.FragmentKeyPrefixLen)
	first := rag.Fragment{Filename: "notes.md", Content: prefix + " first tail", Metadata: map[string]interface{}{"v": 1}}
	second := rag.Fragment{Filename: "notes.md", Content: prefix + " second tail", Metadata: map[string]interface{}{"v": 2}}

	l.Attribute(0, []rag.Fragment{first})
	l.Attribute(1, []rag.Fragment{second})

	require.Equal(t, 1, l.Len())
	got := l.FragmentsForTurn(1)
	require.Len(t, got, 1)
	assert.Equal(t, first.Content, got[0].Content)
	assert.Equal(t, 1, got[0].Metadata["v"])
}

func TestAttribute_DuplicateWithinTurnRecordedOnce(t *testing.T) {
	l := New()
	f := frag("a.txt", "same content")

	l.Attribute(0, []rag.Fragment{f, f})

	assert.Len(t, l.FragmentsForTurn(0), 1)
	assert.Len(t, l.TurnKeys(0), 1)
}

func TestAttribute_MissingFilenameUsesSentinel(t *testing.T) {
	l := New()
	l.Attribute(0, []rag.Fragment{{Content: "orphan text"}})

	groups := l.GroupedByFile()
	require.Len(t, groups, 1)
	assert.Equal(t, rag.UnknownFilename, groups[0].Filename)
	assert.True(t, l.Contains(rag.FragmentKey{Filename: rag.UnknownFilename, Prefix: "orphan text"}))
}

func TestTurnKeysAreSubsetOfUnion(t *testing.T) {
	l := New()
	l.Attribute(0, []rag.Fragment{frag("a.pdf", "one"), frag("b.pdf", "two")})
	l.Attribute(1, []rag.Fragment{frag("a.pdf", "one"), frag("c.pdf", "three")})

	for _, turn := range []int{0, 1} {
		for _, key := range l.TurnKeys(turn) {
			assert.True(t, l.Contains(key), "turn %d key %s missing from union", turn, key)
		}
	}
	assert.Equal(t, 3, l.Len())
}

func TestFragmentsForTurn_Empty(t *testing.T) {
	l := New()
	l.Attribute(0, nil)

	assert.NotNil(t, l.FragmentsForTurn(0))
	assert.Empty(t, l.FragmentsForTurn(0))
	assert.Empty(t, l.FragmentsForTurn(42))
}

func TestGroupedByFile_InsertionOrder(t *testing.T) {
	l := New()
	f1 := frag("intro.pdf", "fragment one")
	f2 := frag("guide.md", "fragment two")
	f3 := frag("intro.pdf", "fragment three")

	l.Attribute(0, []rag.Fragment{f1, f2})
	l.Attribute(1, []rag.Fragment{f3})

	groups := l.GroupedByFile()
	require.Len(t, groups, 2)
	assert.Equal(t, "intro.pdf", groups[0].Filename)
	assert.Equal(t, []rag.Fragment{f1, f3}, groups[0].Fragments)
	assert.Equal(t, "guide.md", groups[1].Filename)

	turn1 := l.TurnGroupedByFile(1)
	require.Len(t, turn1, 1)
	assert.Equal(t, []rag.Fragment{f3}, turn1[0].Fragments)
}

func TestReset(t *testing.T) {
	l := New()
	l.Attribute(0, []rag.Fragment{frag("a.pdf", "x")})

	l.Reset()

	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.GroupedByFile())
	assert.Empty(t, l.FragmentsForTurn(0))
}

func TestNewWithPrefix_ShorterPrefixCollapsesMore(t *testing.T) {
	l := NewWithPrefix(3)
	l.Attribute(0, []rag.Fragment{frag("a.pdf", "abcdef"), frag("a.pdf", "abcxyz")})

	assert.Equal(t, 1, l.Len())
}
