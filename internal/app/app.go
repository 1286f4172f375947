package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/handlers"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/queue"
	"github.com/ternarybob/remix/internal/services/export"
	"github.com/ternarybob/remix/internal/services/extractor"
	"github.com/ternarybob/remix/internal/services/generator"
	"github.com/ternarybob/remix/internal/services/llm"
	"github.com/ternarybob/remix/internal/services/pipeline"
	"github.com/ternarybob/remix/internal/services/tokenizer"
	"github.com/ternarybob/remix/internal/services/transcriber"
	"github.com/ternarybob/remix/internal/services/validator"
	"github.com/ternarybob/remix/internal/storage/badger"
)

// App holds all application services and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc

	// Storage
	Storage interfaces.StorageManager

	// Services
	Tokenizer   interfaces.TokenCounter
	LLM         interfaces.LLMClient
	Tiers       interfaces.ModelTiers
	Extractors  *extractor.Registry
	Transcriber interfaces.Transcriber
	Generator   *generator.Service
	Validator   *validator.Service
	Exporter    *export.Service
	Pipeline    *pipeline.Service
	Processor   *queue.Processor

	// Handlers
	WSHandler     *handlers.WebSocketHandler
	APIHandler    *handlers.APIHandler
	SourceHandler *handlers.SourceHandler

	janitor *cron.Cron
}

// New creates a new application with all services initialized
func New(cfg *common.Config) (*App, error) {
	logger := common.GetLogger()
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config: cfg,
		Logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		cancel()
		app.Storage.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	app.Processor.Start()
	app.startJanitor()

	logger.Info().Msg("Application initialized")
	return app, nil
}

func (a *App) initDatabase() error {
	if a.Config.Storage.Badger.ResetOnStartup {
		a.Logger.Warn().Str("path", a.Config.Storage.Badger.Path).Msg("Resetting database on startup")
		if err := os.RemoveAll(a.Config.Storage.Badger.Path); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}

	storage, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.Storage = storage
	return nil
}

func (a *App) initServices() error {
	tokens, err := tokenizer.New()
	if err != nil {
		return fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	a.Tokenizer = tokens

	client, tiers, err := llm.NewClientFromConfig(a.ctx, &a.Config.LLM, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	a.LLM = client
	a.Tiers = tiers

	a.Extractors = extractor.NewRegistry(&a.Config.Pipeline, a.Logger)

	// Whisper transcription needs an OpenAI key. Without one, audio-only
	// sources fail at the transcription stage instead of at startup.
	whisper, err := transcriber.NewService(
		a.Config.LLM.APIKey,
		"",
		a.Config.LLM.WhisperModel,
		a.Config.Pipeline.MaxChunks,
		a.Logger,
	)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Transcriber not configured, audio sources will fail")
	} else {
		a.Transcriber = whisper
	}

	a.Generator = generator.NewService(a.LLM, a.Tokenizer, a.Tiers, a.Logger)
	a.Validator = validator.NewService(a.LLM, a.Tokenizer, a.Tiers, a.Logger)
	a.Exporter = export.NewService(a.Logger)

	// The WebSocket hub doubles as the pipeline progress publisher, so
	// it is created with the services it feeds.
	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)

	a.Pipeline = pipeline.NewService(
		a.Storage,
		a.Extractors,
		a.Transcriber,
		a.Generator,
		a.Validator,
		a.WSHandler,
		&a.Config.Pipeline,
		a.Logger,
	)

	a.Processor = queue.NewProcessor(a.Pipeline, a.Storage.Sources(), &a.Config.Workers, a.Logger)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.SourceHandler = handlers.NewSourceHandler(a.Storage, a.Processor, a.Exporter, &a.Config.Pipeline, a.Logger)
}

// startJanitor schedules periodic cleanup of abandoned working
// directories under the pipeline tmp dir.
func (a *App) startJanitor() {
	maxAge, err := time.ParseDuration(a.Config.Pipeline.CleanupMaxAge)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Invalid cleanup_max_age, workdir janitor disabled")
		return
	}

	a.janitor = cron.New(cron.WithSeconds())
	_, err = a.janitor.AddFunc(a.Config.Pipeline.CleanupSchedule, func() {
		a.cleanupWorkDirs(maxAge)
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Invalid cleanup_schedule, workdir janitor disabled")
		a.janitor = nil
		return
	}

	a.janitor.Start()
	a.Logger.Info().
		Str("schedule", a.Config.Pipeline.CleanupSchedule).
		Str("max_age", a.Config.Pipeline.CleanupMaxAge).
		Msg("Workdir janitor started")
}

// cleanupWorkDirs removes stale per-job directories under the tmp
// root. Entry names are source IDs; a dir is removed only when its
// source reached a terminal state, or no longer exists at all.
func (a *App) cleanupWorkDirs(maxAge time.Duration) {
	entries, err := os.ReadDir(a.Config.Pipeline.TmpDir)
	if err != nil {
		if !os.IsNotExist(err) {
			a.Logger.Warn().Err(err).Msg("Workdir janitor failed to read tmp dir")
		}
		return
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if source, err := a.Storage.Sources().Get(a.ctx, entry.Name()); err == nil && !source.Status.IsTerminal() {
			continue
		}

		path := filepath.Join(a.Config.Pipeline.TmpDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			a.Logger.Warn().Err(err).Str("path", path).Msg("Workdir janitor failed to remove entry")
			continue
		}
		removed++
	}

	if removed > 0 {
		a.Logger.Info().Int("removed", removed).Msg("Workdir janitor cleaned stale entries")
	}
}

// Close shuts down all services in reverse initialization order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application...")

	if a.janitor != nil {
		a.janitor.Stop()
	}

	if a.Processor != nil {
		a.Processor.Stop()
	}

	a.cancel()

	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application stopped")
	return nil
}
