package service

import (
	"context"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/events"
)

// EventSink receives events for connected clients; the websocket hub implements it.
type EventSink interface {
	Broadcast(event events.Event)
	Send(sessionID string, event events.Event)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	bus    *events.Bus
	sink   EventSink
	logger logger.ILogger
}

func NewConsumerService(bus *events.Bus, sink EventSink, log logger.ILogger) IConsumerService {
	return &consumerService{bus: bus, sink: sink, logger: log}
}

// Consume forwards bus events to clients until ctx is done. Conversation events go only to
// the session that produced them.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			event, err := events.Decode(msg)
			if err != nil {
				cs.logger.Error("CONSUMER", "Failed to decode event", map[string]interface{}{
					"message_id": msg.UUID,
					"error":      err.Error(),
				})
				msg.Ack()
				continue
			}

			if session, ok := event.Data["session"].(string); ok && session != "" {
				cs.sink.Send(session, event)
			} else {
				cs.sink.Broadcast(event)
			}
			msg.Ack()
		}
	}()

	return nil
}
