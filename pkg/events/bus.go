package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus is the in-process event bus. The registry publishes to it and the websocket fan-out
// consumes from it.
type Bus struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewBus(pubSub *gochannel.GoChannel, topic string) *Bus {
	return &Bus{pubSub: pubSub, topic: topic}
}

// NewGoChannel builds the gochannel pub/sub the bus runs on.
func NewGoChannel(buffer int64) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, watermill.NopLogger{})
}

func (b *Bus) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", event.EventType())
	return b.pubSub.Publish(b.topic, msg)
}

// Subscribe returns the raw message stream of the bus topic.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, b.topic)
}

// Decode turns a bus message back into an event.
func Decode(msg *message.Message) (BaseEvent, error) {
	var e BaseEvent
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return BaseEvent{}, err
	}
	return e, nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
