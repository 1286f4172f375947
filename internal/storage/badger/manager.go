package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	source      interfaces.SourceStorage
	transcript  interfaces.TranscriptStorage
	content     interfaces.ContentStorage
	validation  interfaces.ValidationStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		source:     NewSourceStorage(db, logger),
		transcript: NewTranscriptStorage(db, logger),
		content:    NewContentStorage(db, logger),
		validation: NewValidationStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Sources returns the source job storage interface
func (m *Manager) Sources() interfaces.SourceStorage {
	return m.source
}

// Transcripts returns the transcript storage interface
func (m *Manager) Transcripts() interfaces.TranscriptStorage {
	return m.transcript
}

// Content returns the generated content storage interface
func (m *Manager) Content() interfaces.ContentStorage {
	return m.content
}

// Validations returns the validation storage interface
func (m *Manager) Validations() interfaces.ValidationStorage {
	return m.validation
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
