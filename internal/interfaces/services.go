package interfaces

import (
	"context"

	"github.com/ternarybob/remix/internal/models"
)

// Extractor pulls raw text (or downloadable audio) out of one source kind
type Extractor interface {
	// Supports reports whether this extractor handles the source kind
	Supports(kind string) bool

	// Extract resolves the source into text or a local audio file.
	// workDir is the per-source scratch directory.
	Extract(ctx context.Context, source *models.Source, workDir string) (*models.ExtractResult, error)
}

// Transcriber converts an audio file into text
type Transcriber interface {
	// Transcribe returns the transcript text and metadata such as the
	// number of segments the audio was split into
	Transcribe(ctx context.Context, audioPath, workDir string) (string, map[string]interface{}, error)
}

// LLMClient is a chat-completion provider. JSON completions must
// return a decodable JSON object string.
type LLMClient interface {
	CompleteText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
	Name() string
}

// ModelTiers binds pipeline phases to provider model names
type ModelTiers struct {
	Map        string
	Reduce     string
	Validation string
}

// TokenCounter counts and slices text in model tokens
type TokenCounter interface {
	Count(text string) int
	Encode(text string) []int
	Decode(tokens []int) string
}

// ProgressPublisher receives pipeline progress commits for broadcast
type ProgressPublisher interface {
	PublishProgress(sourceID string, progress models.Progress)
}
