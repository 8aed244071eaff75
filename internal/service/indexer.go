package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"content-tracker/internal/model"
)

type ContentIndex interface {
	Index(ctx context.Context, content model.DiscoveredContent) error
	Search(ctx context.Context, query, author string, size int) ([]model.ContentSearchHit, error)
}

// IndexService mirrors announced content into the search index.
type IndexService struct {
	log   *zap.Logger
	index ContentIndex
}

func NewIndexService(log *zap.Logger, index ContentIndex) *IndexService {
	return &IndexService{
		log:   log.Named("indexer"),
		index: index,
	}
}

func (s *IndexService) HandleMessage(ctx context.Context, raw []byte) error {
	event, err := model.DecodeEvent(raw)
	if err != nil {
		return err
	}

	content, err := event.Content()
	if err != nil {
		return err
	}

	if err := s.index.Index(ctx, content); err != nil {
		return fmt.Errorf("failed to index %s: %w", content.PlatformID, err)
	}

	s.log.Debug("Content indexed", zap.String("content_id", content.PlatformID))

	return nil
}

func (s *IndexService) Search(ctx context.Context, query, author string, size int) ([]model.ContentSearchHit, error) {
	return s.index.Search(ctx, query, author, size)
}
