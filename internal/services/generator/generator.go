package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"golang.org/x/sync/errgroup"
)

// Fan-out bounds for the LLM pools. The reduce pool covers all five
// channels in one wave.
const (
	mapWorkers    = 8
	reduceWorkers = 5
)

// summaryJoiner separates chunk summaries in the merged reduce input
const summaryJoiner = "\n\n---\n\n"

// ReduceOptions carries regeneration context into a reduce pass
type ReduceOptions struct {
	// Channels restricts the pass to a subset of the catalog; nil
	// means every channel
	Channels []models.Channel

	// ValidationReport and PreviousTexts feed the revision addendum
	// for channels being regenerated
	ValidationReport map[string]models.ChannelReport
	PreviousTexts    map[string]string
}

// Service runs the map/reduce content generation over a transcript
type Service struct {
	llm    interfaces.LLMClient
	tokens interfaces.TokenCounter
	tiers  interfaces.ModelTiers
	logger arbor.ILogger
}

// NewService creates a generator bound to a chat client and model tiers
func NewService(llm interfaces.LLMClient, tokens interfaces.TokenCounter, tiers interfaces.ModelTiers, logger arbor.ILogger) *Service {
	return &Service{
		llm:    llm,
		tokens: tokens,
		tiers:  tiers,
		logger: logger,
	}
}

// ChunkTranscript slices the transcript into overlapping token windows
func (s *Service) ChunkTranscript(text string) []string {
	return chunkByTokens(s.tokens, text)
}

// MapChunks summarizes every chunk concurrently, preserving chunk
// order in the result.
func (s *Service) MapChunks(ctx context.Context, chunks []string) ([]string, error) {
	summaries := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mapWorkers)

	for i, chunk := range chunks {
		g.Go(func() error {
			s.logger.Info().Int("chunk", i+1).Int("total", len(chunks)).Msg("Mapping chunk")
			summary, err := s.llm.CompleteText(gctx, s.tiers.Map, mapSystemPrompt, chunk)
			if err != nil {
				return fmt.Errorf("map chunk %d/%d: %w", i+1, len(chunks), err)
			}
			summaries[i] = summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Reduce generates channel payloads from the chunk summaries. The
// returned payload always carries the merged summary text, even on a
// restricted regeneration pass.
func (s *Service) Reduce(ctx context.Context, summaries []string, opts ReduceOptions) (map[string]string, error) {
	combined := strings.Join(summaries, summaryJoiner)

	channels := opts.Channels
	if channels == nil {
		channels = models.Channels
	}

	results := make([]string, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reduceWorkers)

	for i, ch := range channels {
		g.Go(func() error {
			prompt, err := s.channelPrompt(ch, opts)
			if err != nil {
				return err
			}

			s.logger.Info().Str("channel", ch.PayloadKey).Msg("Generating channel text")

			var text string
			if ch.EmitsJSON {
				text, err = s.llm.CompleteJSON(gctx, s.tiers.Reduce, prompt, combined)
			} else {
				text, err = s.llm.CompleteText(gctx, s.tiers.Reduce, prompt, combined)
			}
			if err != nil {
				return fmt.Errorf("reduce channel %s: %w", ch.PayloadKey, err)
			}
			results[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	payload := make(map[string]string, len(channels)+1)
	for i, ch := range channels {
		payload[ch.PayloadKey] = results[i]
	}
	payload[models.PayloadKeyReduceSummary] = combined

	return payload, nil
}

// channelPrompt builds the system prompt for one channel, appending
// the rejection report and previous draft on regeneration passes.
func (s *Service) channelPrompt(ch models.Channel, opts ReduceOptions) (string, error) {
	base, ok := systemPromptFor(ch.PayloadKey)
	if !ok {
		return "", fmt.Errorf("unknown channel payload key: %s", ch.PayloadKey)
	}

	if opts.ValidationReport == nil || opts.PreviousTexts == nil {
		return base, nil
	}

	entry := opts.ValidationReport[ch.Platform]
	reportJSON, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal validation report for %s: %w", ch.Platform, err)
	}

	previous := opts.PreviousTexts[ch.PayloadKey]
	return base + revisionAddendum(string(reportJSON), previous), nil
}
