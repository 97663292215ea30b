package workspace

import (
	"testing"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_LazilyCreatesOnePerAssistant(t *testing.T) {
	w := New("session-1", logger.NewNopLogger())

	a, err := w.Open("study-notes")
	require.NoError(t, err)
	again, err := w.Open("study-notes")
	require.NoError(t, err)
	other, err := w.Open("biology")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, other)
	assert.Equal(t, []string{"biology", "study-notes"}, w.Assistants())
}

func TestOpen_InvalidName(t *testing.T) {
	w := New("session-1", logger.NewNopLogger())

	_, err := w.Open("Study Notes")

	assert.ErrorIs(t, err, rag.ErrInvalidName)
	assert.Empty(t, w.Assistants())
}

func TestAssistantsAreIndependent(t *testing.T) {
	w := New("session-1", logger.NewNopLogger())
	a, _ := w.Open("a")
	b, _ := w.Open("b")

	_, outcome := a.Submit("busy")
	require.Equal(t, "ACCEPTED", string(outcome))
	_, outcome = b.Submit("also busy")

	assert.Equal(t, "ACCEPTED", string(outcome))
}

func TestDropAndClose(t *testing.T) {
	w := New("session-1", logger.NewNopLogger())
	_, _ = w.Open("a")
	_, _ = w.Open("b")

	assert.True(t, w.Drop("a"))
	assert.False(t, w.Drop("a"))
	_, ok := w.Lookup("a")
	assert.False(t, ok)

	w.Close()
	assert.Empty(t, w.Assistants())
}
