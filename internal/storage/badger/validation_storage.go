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

// ValidationStorage implements the ValidationStorage interface for Badger
type ValidationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewValidationStorage creates a new ValidationStorage instance
func NewValidationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ValidationStorage {
	return &ValidationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ValidationStorage) Append(ctx context.Context, validation *models.Validation) error {
	if validation.ID == "" {
		return fmt.Errorf("validation ID is required")
	}
	if validation.CreatedAt.IsZero() {
		validation.CreatedAt = time.Now()
	}
	if err := s.db.Store().Insert(validation.ID, validation); err != nil {
		return fmt.Errorf("failed to save validation: %w", err)
	}
	return nil
}

func (s *ValidationStorage) GetLatestBySourceID(ctx context.Context, sourceID string) (*models.Validation, error) {
	var rows []models.Validation
	query := badgerhold.Where("SourceID").Eq(sourceID).SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to get validation: %w", err)
	}
	if len(rows) == 0 {
		return nil, badgerhold.ErrNotFound
	}
	return &rows[0], nil
}

func (s *ValidationStorage) DeleteBySourceID(ctx context.Context, sourceID string) error {
	if err := s.db.Store().DeleteMatching(&models.Validation{}, badgerhold.Where("SourceID").Eq(sourceID)); err != nil {
		return fmt.Errorf("failed to delete validations: %w", err)
	}
	return nil
}
