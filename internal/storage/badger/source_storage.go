package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SourceStorage implements the SourceStorage interface for Badger
type SourceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSourceStorage creates a new SourceStorage instance
func NewSourceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SourceStorage {
	return &SourceStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SourceStorage) Store(ctx context.Context, source *models.Source) error {
	if source.ID == "" {
		return fmt.Errorf("source ID is required")
	}

	source.UpdatedAt = time.Now()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = source.UpdatedAt
	}

	if err := s.db.Store().Upsert(source.ID, source); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}
	return nil
}

func (s *SourceStorage) Get(ctx context.Context, id string) (*models.Source, error) {
	var source models.Source
	if err := s.db.Store().Get(id, &source); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, badgerhold.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

func (s *SourceStorage) List(ctx context.Context, limit, offset int) ([]*models.Source, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Skip(offset)
	}

	var sources []models.Source
	if err := s.db.Store().Find(&sources, query); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	result := make([]*models.Source, len(sources))
	for i := range sources {
		result[i] = &sources[i]
	}
	return result, nil
}

func (s *SourceStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Source{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return int(count), nil
}

func (s *SourceStorage) Delete(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Source{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return badgerhold.ErrNotFound
		}
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}

func (s *SourceStorage) UpdateProgress(ctx context.Context, id string, status models.SourceStatus, stage string, percent int) error {
	return s.mutate(id, func(source *models.Source) error {
		source.Status = status
		source.Stage = stage
		source.Percent = percent
		return nil
	})
}

func (s *SourceStorage) SetTitle(ctx context.Context, id, title string) error {
	return s.mutate(id, func(source *models.Source) error {
		source.Title = title
		return nil
	})
}

func (s *SourceStorage) SetRegenCount(ctx context.Context, id string, count int) error {
	return s.mutate(id, func(source *models.Source) error {
		source.RegenCount = count
		return nil
	})
}

func (s *SourceStorage) MarkFailed(ctx context.Context, id string, code, message string) error {
	return s.mutate(id, func(source *models.Source) error {
		source.Status = models.StatusFailed
		source.Stage = "failed"
		source.Percent = 0
		source.ErrorCode = code
		source.ErrorMsg = message
		return nil
	})
}

// TryStartRegeneration re-queues a reviewed job for another reduce
// pass. The status check, attempt guard and increment happen inside a
// single Badger transaction so concurrent requests cannot both win.
func (s *SourceStorage) TryStartRegeneration(ctx context.Context, id string) (interfaces.RegenOutcome, error) {
	outcome := interfaces.RegenStarted

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		var source models.Source
		if err := s.db.Store().TxGet(txn, id, &source); err != nil {
			if err == badgerhold.ErrNotFound {
				outcome = interfaces.RegenNotFound
				return nil
			}
			return err
		}

		if source.Status != models.StatusNeedsReview {
			outcome = interfaces.RegenStatusConflict
			return nil
		}
		if source.RegenCount >= models.MaxRegenerations {
			outcome = interfaces.RegenLimitReached
			return nil
		}

		source.Status = models.StatusReducing
		source.Stage = "reducing"
		source.Percent = 60
		source.RegenCount++
		source.UpdatedAt = time.Now()

		return s.db.Store().TxUpsert(txn, id, &source)
	})
	if err != nil {
		return interfaces.RegenStarted, fmt.Errorf("failed to start regeneration: %w", err)
	}

	return outcome, nil
}

func (s *SourceStorage) ListByStatus(ctx context.Context, status models.SourceStatus) ([]*models.Source, error) {
	var sources []models.Source
	query := badgerhold.Where("Status").Eq(status).SortBy("CreatedAt")
	if err := s.db.Store().Find(&sources, query); err != nil {
		return nil, fmt.Errorf("failed to list sources by status: %w", err)
	}

	result := make([]*models.Source, len(sources))
	for i := range sources {
		result[i] = &sources[i]
	}
	return result, nil
}

// mutate applies an in-place update to one source row
func (s *SourceStorage) mutate(id string, fn func(*models.Source) error) error {
	var source models.Source
	if err := s.db.Store().Get(id, &source); err != nil {
		if err == badgerhold.ErrNotFound {
			return badgerhold.ErrNotFound
		}
		return fmt.Errorf("failed to get source: %w", err)
	}

	if err := fn(&source); err != nil {
		return err
	}

	source.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(source.ID, &source); err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	return nil
}
