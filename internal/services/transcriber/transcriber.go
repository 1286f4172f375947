package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/services/media"
)

// Whisper rejects uploads above its payload cap, so larger files are
// split into time segments sized to fit under it with headroom.
const (
	maxUploadBytes  = 20 * 1024 * 1024
	uploadHeadroom  = 0.95
	minChunkSeconds = 10
)

// Service implements the Transcriber interface over the Whisper API
type Service struct {
	client    *openai.Client
	model     string
	maxChunks int
	logger    arbor.ILogger
}

// Compile-time interface check
var _ interfaces.Transcriber = (*Service)(nil)

// NewService creates a Whisper transcriber. baseURL is optional and
// redirects to an OpenAI-compatible endpoint.
func NewService(apiKey, baseURL, model string, maxChunks int, logger arbor.ILogger) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("transcription API key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Service{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		maxChunks: maxChunks,
		logger:    logger,
	}, nil
}

// Transcribe converts the audio file to text. Files over the upload
// cap are segmented first and the segment texts joined with spaces.
func (s *Service) Transcribe(ctx context.Context, audioPath, workDir string) (string, map[string]interface{}, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", nil, fmt.Errorf("transcript_unavailable: audio file missing: %w", err)
	}

	if info.Size() <= maxUploadBytes {
		text, err := s.transcribeFile(ctx, audioPath)
		if err != nil {
			return "", nil, err
		}
		return text, map[string]interface{}{"whisper_chunks": 1}, nil
	}

	duration, err := media.Duration(ctx, audioPath)
	if err != nil {
		return "", nil, fmt.Errorf("transcript_unavailable: cannot probe audio: %w", err)
	}

	chunkSeconds := splitChunkSeconds(info.Size(), duration)
	s.logger.Info().
		Int64("bytes", info.Size()).
		Int("chunk_seconds", chunkSeconds).
		Msg("Splitting audio for transcription")

	segDir := filepath.Join(workDir, "segments")
	if err := os.MkdirAll(segDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create segment dir: %w", err)
	}

	segments, err := media.SegmentAudio(ctx, audioPath, segDir, chunkSeconds)
	if err != nil {
		return "", nil, fmt.Errorf("transcript_unavailable: %w", err)
	}

	if len(segments) > s.maxChunks {
		return "", nil, fmt.Errorf("too_many_chunks: audio split into %d segments, limit %d", len(segments), s.maxChunks)
	}

	texts := make([]string, 0, len(segments))
	for i, segment := range segments {
		s.logger.Info().Int("segment", i+1).Int("total", len(segments)).Msg("Transcribing segment")
		text, err := s.transcribeFile(ctx, segment)
		if err != nil {
			return "", nil, err
		}
		texts = append(texts, text)
	}

	return strings.Join(texts, " "), map[string]interface{}{"whisper_chunks": len(segments)}, nil
}

func (s *Service) transcribeFile(ctx context.Context, path string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: path,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}
	return resp.Text, nil
}

// splitChunkSeconds sizes segments so each stays under the upload cap
// at the file's observed bitrate, floored at ten seconds.
func splitChunkSeconds(sizeBytes int64, durationSeconds float64) int {
	if durationSeconds <= 0 {
		return minChunkSeconds
	}

	bytesPerSecond := float64(sizeBytes) / durationSeconds
	chunkSeconds := int(uploadHeadroom * maxUploadBytes / bytesPerSecond)
	if chunkSeconds < minChunkSeconds {
		return minChunkSeconds
	}
	return chunkSeconds
}
