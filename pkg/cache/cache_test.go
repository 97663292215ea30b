package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Names []string `json:"names"`
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var got listing
	found, err := c.Get(ctx, AssistantsKey(), &got)
	require.NoError(t, err)
	assert.False(t, found)

	in := listing{Names: []string{"a", "b"}}
	require.NoError(t, c.Set(ctx, AssistantsKey(), in))
	in.Names[0] = "mutated"

	found, err = c.Get(ctx, AssistantsKey(), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got.Names, "cache must not alias caller slices")

	require.NoError(t, c.Delete(ctx, ListingKeys("a")...))
	found, _ = c.Get(ctx, AssistantsKey(), &got)
	assert.False(t, found)
}

func TestListingKeys(t *testing.T) {
	keys := ListingKeys("study-notes")
	assert.Contains(t, keys, AssistantsKey())
	assert.Contains(t, keys, DocumentsKey("study-notes"))
	assert.NotEqual(t, DocumentsKey("a"), DocumentsKey("b"))
}
