package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TranscriptStorage implements the TranscriptStorage interface for Badger
type TranscriptStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTranscriptStorage creates a new TranscriptStorage instance
func NewTranscriptStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TranscriptStorage {
	return &TranscriptStorage{
		db:     db,
		logger: logger,
	}
}

func (s *TranscriptStorage) Store(ctx context.Context, transcript *models.Transcript) error {
	if transcript.ID == "" {
		return fmt.Errorf("transcript ID is required")
	}
	if err := s.db.Store().Upsert(transcript.ID, transcript); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (s *TranscriptStorage) GetBySourceID(ctx context.Context, sourceID string) (*models.Transcript, error) {
	var transcripts []models.Transcript
	query := badgerhold.Where("SourceID").Eq(sourceID).SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&transcripts, query); err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	if len(transcripts) == 0 {
		return nil, badgerhold.ErrNotFound
	}
	return &transcripts[0], nil
}

// FindLatestByURL returns the most recent transcript another source
// recorded for the same URL, or ErrNotFound.
func (s *TranscriptStorage) FindLatestByURL(ctx context.Context, url, excludeSourceID string) (*models.Transcript, error) {
	if url == "" {
		return nil, badgerhold.ErrNotFound
	}

	var transcripts []models.Transcript
	query := badgerhold.Where("URL").Eq(url).And("SourceID").Ne(excludeSourceID).
		SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&transcripts, query); err != nil {
		return nil, fmt.Errorf("failed to find transcript by url: %w", err)
	}
	if len(transcripts) == 0 {
		return nil, badgerhold.ErrNotFound
	}
	return &transcripts[0], nil
}

func (s *TranscriptStorage) DeleteBySourceID(ctx context.Context, sourceID string) error {
	if err := s.db.Store().DeleteMatching(&models.Transcript{}, badgerhold.Where("SourceID").Eq(sourceID)); err != nil {
		return fmt.Errorf("failed to delete transcripts: %w", err)
	}
	return nil
}
