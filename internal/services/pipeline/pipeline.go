package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"github.com/ternarybob/remix/internal/services/generator"
)

// Stage percentages. Each stage commits its percent when it begins;
// every stage is committed even when it completes instantly, so the
// published series never skips a stage. Terminal success lands on 100
// via the done stage.
const (
	percentExtracting   = 0
	percentTranscribing = 10
	percentChunking     = 30
	percentMapping      = 35
	percentReducing     = 60
	percentValidating   = 85
	percentDone         = 100
)

// ExtractorRegistry dispatches extraction by source kind
type ExtractorRegistry interface {
	Extract(ctx context.Context, source *models.Source, workDir string) (*models.ExtractResult, error)
}

// Generator runs the map/reduce content generation
type Generator interface {
	ChunkTranscript(text string) []string
	MapChunks(ctx context.Context, chunks []string) ([]string, error)
	Reduce(ctx context.Context, summaries []string, opts generator.ReduceOptions) (map[string]string, error)
}

// Validator reviews generated payloads against the source text
type Validator interface {
	Validate(ctx context.Context, texts map[string]string, transcript string, channels []string) (string, map[string]models.ChannelReport, error)
}

// Service drives a source job through extraction, transcription,
// generation and validation, committing progress as it goes.
type Service struct {
	stores      interfaces.StorageManager
	extractors  ExtractorRegistry
	transcriber interfaces.Transcriber
	generator   Generator
	validator   Validator
	events      interfaces.ProgressPublisher
	tmpDir      string
	maxChunks   int
	logger      arbor.ILogger
}

// NewService wires the pipeline stages together
func NewService(
	stores interfaces.StorageManager,
	extractors ExtractorRegistry,
	transcriber interfaces.Transcriber,
	gen Generator,
	val Validator,
	events interfaces.ProgressPublisher,
	cfg *common.PipelineConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		stores:      stores,
		extractors:  extractors,
		transcriber: transcriber,
		generator:   gen,
		validator:   val,
		events:      events,
		tmpDir:      cfg.TmpDir,
		maxChunks:   cfg.MaxChunks,
		logger:      logger,
	}
}

// Process runs the full pipeline for a queued source. Any stage error
// moves the job to failed with a classified error code.
func (s *Service) Process(ctx context.Context, sourceID string) {
	if err := s.run(ctx, sourceID); err != nil {
		s.fail(ctx, sourceID, err)
	}
}

// Regenerate re-runs reduce and validation for a source whose previous
// pass needs revision. The caller must have already moved the job into
// the reducing state.
func (s *Service) Regenerate(ctx context.Context, sourceID string) {
	if err := s.runRegeneration(ctx, sourceID); err != nil {
		s.fail(ctx, sourceID, err)
	}
}

func (s *Service) run(ctx context.Context, sourceID string) error {
	source, err := s.stores.Sources().Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}

	workDir := filepath.Join(s.tmpDir, sourceID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	s.logger.Info().Str("source_id", sourceID).Str("kind", source.Kind).Msg("Pipeline started")

	transcript, err := s.resolveTranscript(ctx, source, workDir)
	if err != nil {
		return err
	}

	if err := s.advance(ctx, sourceID, models.StatusChunking, "chunking", percentChunking); err != nil {
		return err
	}

	chunks := s.generator.ChunkTranscript(transcript.RawText)
	if len(chunks) > s.maxChunks {
		return fmt.Errorf("too_many_chunks: transcript split into %d chunks, limit %d", len(chunks), s.maxChunks)
	}

	if err := s.advance(ctx, sourceID, models.StatusMapping, "mapping", percentMapping); err != nil {
		return err
	}

	summaries, err := s.generator.MapChunks(ctx, chunks)
	if err != nil {
		return err
	}

	if err := s.advance(ctx, sourceID, models.StatusReducing, "reducing", percentReducing); err != nil {
		return err
	}

	payload, err := s.generator.Reduce(ctx, summaries, generator.ReduceOptions{})
	if err != nil {
		return err
	}

	if err := s.storePayload(ctx, sourceID, payload); err != nil {
		return err
	}

	if err := s.advance(ctx, sourceID, models.StatusValidating, "validating", percentValidating); err != nil {
		return err
	}

	verdict, report, err := s.validator.Validate(ctx, payload, validationSource(payload, transcript.RawText), nil)
	if err != nil {
		return err
	}
	if err := s.appendValidation(ctx, sourceID, verdict, report); err != nil {
		return err
	}

	// One automatic repair attempt before surfacing the review to the
	// user, consuming the first regeneration slot.
	if verdict == models.VerdictNeedsRevision && source.RegenCount == 0 {
		verdict, report, err = s.autofix(ctx, sourceID, payload, transcript.RawText, report)
		if err != nil {
			return err
		}
	}

	return s.finish(ctx, sourceID, verdict)
}

// resolveTranscript produces the transcript for the source, reusing a
// cached transcript for a previously processed URL when available.
func (s *Service) resolveTranscript(ctx context.Context, source *models.Source, workDir string) (*models.Transcript, error) {
	if err := s.advance(ctx, source.ID, models.StatusExtracting, "extracting", percentExtracting); err != nil {
		return nil, err
	}

	if source.Kind == models.SourceKindYouTube && source.URL != "" {
		cached, err := s.stores.Transcripts().FindLatestByURL(ctx, source.URL, source.ID)
		if err == nil && cached != nil {
			s.logger.Info().Str("source_id", source.ID).Msg("Reusing cached transcript for URL")
			if err := s.advance(ctx, source.ID, models.StatusTranscribing, "transcribing", percentTranscribing); err != nil {
				return nil, err
			}
			return s.adoptCachedTranscript(ctx, source, cached)
		}
	}

	result, err := s.extractors.Extract(ctx, source, workDir)
	if err != nil {
		return nil, err
	}

	if title := deriveTitle(source, result); title != "" {
		if err := s.stores.Sources().SetTitle(ctx, source.ID, title); err != nil {
			return nil, fmt.Errorf("store title: %w", err)
		}
	}

	text := result.Text
	meta := result.Meta
	if meta == nil {
		meta = map[string]interface{}{}
	}

	// Text-bearing sources pass through transcribing instantly; the
	// stage is still committed so progress never skips it.
	if err := s.advance(ctx, source.ID, models.StatusTranscribing, "transcribing", percentTranscribing); err != nil {
		return nil, err
	}

	if result.NeedsTranscription {
		if s.transcriber == nil {
			return nil, fmt.Errorf("transcript_unavailable: no transcription backend configured")
		}

		transcribed, transcribeMeta, err := s.transcriber.Transcribe(ctx, result.AudioPath, workDir)
		if err != nil {
			return nil, err
		}
		text = transcribed
		for k, v := range transcribeMeta {
			meta[k] = v
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("transcript_unavailable: source produced no text")
	}

	transcript := &models.Transcript{
		ID:          uuid.New().String(),
		SourceID:    source.ID,
		URL:         source.URL,
		RawText:     text,
		Language:    result.Language,
		SourceLabel: result.SourceLabel,
		Meta:        meta,
		CreatedAt:   time.Now(),
	}
	if err := s.stores.Transcripts().Store(ctx, transcript); err != nil {
		return nil, fmt.Errorf("store transcript: %w", err)
	}
	return transcript, nil
}

// adoptCachedTranscript copies a cached transcript onto this source so
// downstream stages and deletes stay per-source.
func (s *Service) adoptCachedTranscript(ctx context.Context, source *models.Source, cached *models.Transcript) (*models.Transcript, error) {
	meta := make(map[string]interface{}, len(cached.Meta)+1)
	for k, v := range cached.Meta {
		meta[k] = v
	}
	meta["cached"] = true

	transcript := &models.Transcript{
		ID:          uuid.New().String(),
		SourceID:    source.ID,
		URL:         source.URL,
		RawText:     cached.RawText,
		Language:    cached.Language,
		SourceLabel: cached.SourceLabel,
		Meta:        meta,
		CreatedAt:   time.Now(),
	}
	if err := s.stores.Transcripts().Store(ctx, transcript); err != nil {
		return nil, fmt.Errorf("store transcript: %w", err)
	}

	if title := transcript.MetaTitle(); title != "" {
		if err := s.stores.Sources().SetTitle(ctx, source.ID, title); err != nil {
			return nil, fmt.Errorf("store title: %w", err)
		}
	}
	return transcript, nil
}

// autofix re-reduces the failed channels with the rejection report as
// revision context, then re-validates just those channels.
func (s *Service) autofix(ctx context.Context, sourceID string, payload map[string]string, transcript string, report map[string]models.ChannelReport) (string, map[string]models.ChannelReport, error) {
	failed := models.FailedChannels(report)
	if len(failed) == 0 {
		return models.VerdictNeedsRevision, report, nil
	}

	s.logger.Info().Str("source_id", sourceID).Int("channels", len(failed)).Msg("Attempting automatic revision")

	if err := s.stores.Sources().SetRegenCount(ctx, sourceID, 1); err != nil {
		return "", nil, fmt.Errorf("record revision attempt: %w", err)
	}
	if err := s.advance(ctx, sourceID, models.StatusReducing, "reducing", percentReducing); err != nil {
		return "", nil, err
	}

	revised, err := s.generator.Reduce(ctx, []string{payload[models.PayloadKeyReduceSummary]}, generator.ReduceOptions{
		Channels:         failed,
		ValidationReport: report,
		PreviousTexts:    payload,
	})
	if err != nil {
		return "", nil, err
	}

	for key, text := range revised {
		payload[key] = text
	}
	if err := s.storePayload(ctx, sourceID, payload); err != nil {
		return "", nil, err
	}

	if err := s.advance(ctx, sourceID, models.StatusValidating, "validating", percentValidating); err != nil {
		return "", nil, err
	}

	keys := make([]string, 0, len(failed))
	for _, ch := range failed {
		keys = append(keys, ch.PayloadKey)
	}

	_, revisedReport, err := s.validator.Validate(ctx, payload, validationSource(payload, transcript), keys)
	if err != nil {
		return "", nil, err
	}

	merged := models.MergeReports(report, revisedReport)
	verdict := models.ComputeVerdict(merged)
	if err := s.appendValidation(ctx, sourceID, verdict, merged); err != nil {
		return "", nil, err
	}
	return verdict, merged, nil
}

func (s *Service) runRegeneration(ctx context.Context, sourceID string) error {
	source, err := s.stores.Sources().Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}

	transcript, err := s.stores.Transcripts().GetBySourceID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	content, err := s.stores.Content().GetBySourceID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	latest, err := s.stores.Validations().GetLatestBySourceID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load validation: %w", err)
	}

	s.logger.Info().Str("source_id", sourceID).Int("attempt", source.RegenCount).Msg("Regeneration started")
	s.publish(sourceID, models.Progress{Stage: "reducing", Percent: percentReducing})

	payload := content.Payload
	report := latest.Report

	failed := models.FailedChannels(report)
	if len(failed) == 0 {
		s.logger.Warn().Str("source_id", sourceID).Msg("Latest report has no failed channels, nothing to regenerate")
		return s.finish(ctx, sourceID, latest.Verdict)
	}

	revised, err := s.generator.Reduce(ctx, []string{payload[models.PayloadKeyReduceSummary]}, generator.ReduceOptions{
		Channels:         failed,
		ValidationReport: report,
		PreviousTexts:    payload,
	})
	if err != nil {
		return err
	}
	for key, text := range revised {
		payload[key] = text
	}
	if err := s.storePayload(ctx, sourceID, payload); err != nil {
		return err
	}

	if err := s.advance(ctx, sourceID, models.StatusValidating, "validating", percentValidating); err != nil {
		return err
	}

	keys := make([]string, 0, len(failed))
	for _, ch := range failed {
		keys = append(keys, ch.PayloadKey)
	}

	_, revisedReport, err := s.validator.Validate(ctx, payload, validationSource(payload, transcript.RawText), keys)
	if err != nil {
		return err
	}

	merged := models.MergeReports(report, revisedReport)
	verdict := models.ComputeVerdict(merged)

	if err := s.appendValidation(ctx, sourceID, verdict, merged); err != nil {
		return err
	}
	return s.finish(ctx, sourceID, verdict)
}

func (s *Service) storePayload(ctx context.Context, sourceID string, payload map[string]string) error {
	content := &models.GeneratedContent{
		ID:       uuid.New().String(),
		SourceID: sourceID,
		Payload:  payload,
	}
	if err := s.stores.Content().Upsert(ctx, content); err != nil {
		return fmt.Errorf("store content: %w", err)
	}
	return nil
}

func (s *Service) appendValidation(ctx context.Context, sourceID, verdict string, report map[string]models.ChannelReport) error {
	validation := &models.Validation{
		ID:        uuid.New().String(),
		SourceID:  sourceID,
		Verdict:   verdict,
		Report:    report,
		CreatedAt: time.Now(),
	}
	if err := s.stores.Validations().Append(ctx, validation); err != nil {
		return fmt.Errorf("store validation: %w", err)
	}
	return nil
}

func (s *Service) finish(ctx context.Context, sourceID, verdict string) error {
	status := models.StatusNeedsReview
	if verdict == models.VerdictApproved {
		status = models.StatusApproved
	}

	if err := s.stores.Sources().UpdateProgress(ctx, sourceID, status, "done", percentDone); err != nil {
		return fmt.Errorf("commit final status: %w", err)
	}
	s.publish(sourceID, models.Progress{Stage: "done", Percent: percentDone})

	s.logger.Info().Str("source_id", sourceID).Str("status", string(status)).Msg("Pipeline finished")
	return nil
}

func (s *Service) advance(ctx context.Context, sourceID string, status models.SourceStatus, stage string, percent int) error {
	if err := s.stores.Sources().UpdateProgress(ctx, sourceID, status, stage, percent); err != nil {
		return fmt.Errorf("commit %s stage: %w", stage, err)
	}
	s.publish(sourceID, models.Progress{Stage: stage, Percent: percent})
	return nil
}

func (s *Service) fail(ctx context.Context, sourceID string, err error) {
	code, message := Classify(err)
	s.logger.Warn().Err(err).Str("source_id", sourceID).Str("code", code).Msg("Pipeline failed")

	if markErr := s.stores.Sources().MarkFailed(ctx, sourceID, code, message); markErr != nil {
		s.logger.Error().Err(markErr).Str("source_id", sourceID).Msg("Failed to record job failure")
	}
	s.publish(sourceID, models.Progress{Stage: "failed", Percent: 0})
}

func (s *Service) publish(sourceID string, progress models.Progress) {
	if s.events != nil {
		s.events.PublishProgress(sourceID, progress)
	}
}

// validationSource picks the text the validator checks drafts against.
// Validation reviews the merged reduce summary; the raw transcript is
// the fallback when the payload carries no summary.
func validationSource(payload map[string]string, transcript string) string {
	if summary := payload[models.PayloadKeyReduceSummary]; strings.TrimSpace(summary) != "" {
		return summary
	}
	return transcript
}

// deriveTitle picks the display title: extractor metadata first, then
// the uploaded filename, then the URL itself.
func deriveTitle(source *models.Source, result *models.ExtractResult) string {
	if title := result.MetaTitle(); title != "" {
		return title
	}
	if source.Filename != "" {
		return strings.TrimSuffix(source.Filename, filepath.Ext(source.Filename))
	}
	return source.URL
}
