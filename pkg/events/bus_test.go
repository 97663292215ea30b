package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(NewGoChannel(16), "registry")
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, New(TypeAssistantCreated, map[string]interface{}{"assistant": "study-notes"})))

	select {
	case msg := <-messages:
		e, err := Decode(msg)
		require.NoError(t, err)
		msg.Ack()
		assert.Equal(t, TypeAssistantCreated, e.EventType())
		assert.Equal(t, "study-notes", Assistant(e))
		assert.Equal(t, TypeAssistantCreated, msg.Metadata.Get("type"))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

type recordingPublisher struct{ got []Event }

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return nil
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("nats down")
	rec := &recordingPublisher{}
	m := Multi{failingPublisher{err: boom}, nil, rec}

	err := m.Publish(context.Background(), New(TypeDocumentsAdded, nil))

	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.got, 1)
}
