package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ContentStorage implements the ContentStorage interface for Badger
type ContentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewContentStorage creates a new ContentStorage instance
func NewContentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ContentStorage {
	return &ContentStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert keeps one content row per source. A regeneration pass reuses
// the existing row ID so the payload is replaced, not duplicated.
func (s *ContentStorage) Upsert(ctx context.Context, content *models.GeneratedContent) error {
	if content.SourceID == "" {
		return fmt.Errorf("content source ID is required")
	}

	existing, err := s.GetBySourceID(ctx, content.SourceID)
	if err == nil {
		content.ID = existing.ID
		content.CreatedAt = existing.CreatedAt
	} else if err != badgerhold.ErrNotFound {
		return err
	}

	if content.ID == "" {
		return fmt.Errorf("content ID is required")
	}

	content.UpdatedAt = time.Now()
	if content.CreatedAt.IsZero() {
		content.CreatedAt = content.UpdatedAt
	}

	if err := s.db.Store().Upsert(content.ID, content); err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

func (s *ContentStorage) GetBySourceID(ctx context.Context, sourceID string) (*models.GeneratedContent, error) {
	var rows []models.GeneratedContent
	query := badgerhold.Where("SourceID").Eq(sourceID).Limit(1)
	if err := s.db.Store().Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	if len(rows) == 0 {
		return nil, badgerhold.ErrNotFound
	}
	return &rows[0], nil
}

func (s *ContentStorage) DeleteBySourceID(ctx context.Context, sourceID string) error {
	if err := s.db.Store().DeleteMatching(&models.GeneratedContent{}, badgerhold.Where("SourceID").Eq(sourceID)); err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}
