package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
)

// claudeMaxTokens bounds completion length for channel texts
const claudeMaxTokens = 8192

// ClaudeService implements the LLMClient interface against the Anthropic API
type ClaudeService struct {
	client anthropic.Client
	logger arbor.ILogger
}

// Compile-time interface check
var _ interfaces.LLMClient = (*ClaudeService)(nil)

// NewClaudeService creates an Anthropic-backed chat client
func NewClaudeService(apiKey string, logger arbor.ILogger) (*ClaudeService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &ClaudeService{
		client: client,
		logger: logger,
	}, nil
}

func (s *ClaudeService) Name() string {
	return "claude"
}

func (s *ClaudeService) CompleteText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	return s.generateCompletion(ctx, model, systemPrompt, userPrompt, textTemperature)
}

// CompleteJSON has no native JSON mode on the Messages API, so the
// system prompt is extended with an output constraint and the response
// goes through fence extraction.
func (s *ClaudeService) CompleteJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	system := systemPrompt + "\n\nRespond with a single valid JSON object and nothing else."

	response, err := s.generateCompletion(ctx, model, system, userPrompt, jsonTemperature)
	if err != nil {
		return "", err
	}

	return ExtractJSONObject(response)
}

func (s *ClaudeService) generateCompletion(ctx context.Context, model, systemPrompt, userPrompt string, temperature float64) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(claudeMaxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(userPrompt),
			),
		},
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	return response.String(), nil
}
