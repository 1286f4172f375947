package interfaces

import (
	"context"

	"github.com/ternarybob/remix/internal/models"
)

// SourceStorage - interface for source job persistence
type SourceStorage interface {
	Store(ctx context.Context, source *models.Source) error
	Get(ctx context.Context, id string) (*models.Source, error)
	List(ctx context.Context, limit, offset int) ([]*models.Source, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error

	// UpdateProgress commits a stage transition in one write
	UpdateProgress(ctx context.Context, id string, status models.SourceStatus, stage string, percent int) error

	// SetTitle records the derived display title
	SetTitle(ctx context.Context, id, title string) error

	// SetRegenCount records autofix consumption on the job row
	SetRegenCount(ctx context.Context, id string, count int) error

	// MarkFailed moves a job into the failed state with an error code
	MarkFailed(ctx context.Context, id string, code, message string) error

	// TryStartRegeneration atomically re-queues a reviewed job for
	// another reduce pass, enforcing the status and attempt guards
	TryStartRegeneration(ctx context.Context, id string) (RegenOutcome, error)

	// ListByStatus returns jobs currently in the given state
	ListByStatus(ctx context.Context, status models.SourceStatus) ([]*models.Source, error)
}

// RegenOutcome is the result of a conditional regeneration request
type RegenOutcome int

const (
	RegenStarted RegenOutcome = iota
	RegenNotFound
	RegenStatusConflict
	RegenLimitReached
)

// TranscriptStorage - interface for transcript persistence
type TranscriptStorage interface {
	Store(ctx context.Context, transcript *models.Transcript) error
	GetBySourceID(ctx context.Context, sourceID string) (*models.Transcript, error)

	// FindLatestByURL returns the most recent transcript recorded for
	// the URL by a different source, for cache reuse
	FindLatestByURL(ctx context.Context, url, excludeSourceID string) (*models.Transcript, error)

	DeleteBySourceID(ctx context.Context, sourceID string) error
}

// ContentStorage - interface for generated content persistence
type ContentStorage interface {
	// Upsert stores the payload for a source, replacing any previous row
	Upsert(ctx context.Context, content *models.GeneratedContent) error
	GetBySourceID(ctx context.Context, sourceID string) (*models.GeneratedContent, error)
	DeleteBySourceID(ctx context.Context, sourceID string) error
}

// ValidationStorage - interface for validation history persistence
type ValidationStorage interface {
	// Append records a new validation pass; history is never overwritten
	Append(ctx context.Context, validation *models.Validation) error
	GetLatestBySourceID(ctx context.Context, sourceID string) (*models.Validation, error)
	DeleteBySourceID(ctx context.Context, sourceID string) error
}

// StorageManager provides access to all typed stores
type StorageManager interface {
	Sources() SourceStorage
	Transcripts() TranscriptStorage
	Content() ContentStorage
	Validations() ValidationStorage
	Close() error
}
