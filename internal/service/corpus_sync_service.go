package service

import (
	"context"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/corpus"
	"study-assistant-be/pkg/events"
)

// ListingInvalidator is the part of registry.Registry that drops cached listings.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context, assistant string) error
}

// ICorpusSyncService keeps cached listings honest when the corpus or a peer instance changes
// something this process did not do itself.
type ICorpusSyncService interface {
	OnCorpusChange(ctx context.Context, change corpus.Change)
	OnRemoteEvent(ctx context.Context, event events.Event) error
}

type corpusSyncService struct {
	listings  ListingInvalidator
	publisher events.Publisher
	logger    logger.ILogger
}

func NewCorpusSyncService(listings ListingInvalidator, publisher events.Publisher, log logger.ILogger) ICorpusSyncService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &corpusSyncService{listings: listings, publisher: publisher, logger: log}
}

func (s *corpusSyncService) OnCorpusChange(ctx context.Context, change corpus.Change) {
	if err := s.listings.InvalidateListings(ctx, change.Assistant); err != nil {
		s.logger.Warn("CORPUS_SYNC", "Failed to invalidate listings", map[string]interface{}{
			"assistant": change.Assistant,
			"error":     err.Error(),
		})
	}

	event := events.New(events.TypeCorpusChanged, map[string]interface{}{
		"assistant": change.Assistant,
		"filename":  change.Filename,
		"op":        change.Op,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("CORPUS_SYNC", "Failed to publish corpus change", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// OnRemoteEvent drops listings touched by another instance. Conversation events carry no
// corpus change and are ignored.
func (s *corpusSyncService) OnRemoteEvent(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case events.TypeConversationAnswer, events.TypeConversationReset:
		return nil
	}
	assistant := events.Assistant(event)
	if assistant == "" {
		return nil
	}
	s.logger.Debug("CORPUS_SYNC", "Remote change", map[string]interface{}{
		"type":      event.EventType(),
		"assistant": assistant,
	})
	return s.listings.InvalidateListings(ctx, assistant)
}
