package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
)

// LocalService implements the LLMClient interface against a local
// OpenAI-compatible endpoint such as Ollama. Local models often lack
// native JSON mode, so JSON completions carry a retry path and a
// fenced-output extraction fallback.
type LocalService struct {
	client  *openai.Client
	baseURL string
	logger  arbor.ILogger
}

// Compile-time interface check
var _ interfaces.LLMClient = (*LocalService)(nil)

// NewLocalService creates a client for an OpenAI-compatible local endpoint
func NewLocalService(baseURL string, logger arbor.ILogger) (*LocalService, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("local LLM base URL is required")
	}

	config := openai.DefaultConfig("ollama")
	config.BaseURL = baseURL

	return &LocalService{
		client:  openai.NewClientWithConfig(config),
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

func (s *LocalService) Name() string {
	return "local"
}

func (s *LocalService) CompleteText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: textTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("local chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("local model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *LocalService) CompleteJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: jsonTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		// Some local models reject the response_format parameter
		// outright; retry once without it and extract instead
		if !strings.Contains(strings.ToLower(err.Error()), "response_format") {
			return "", fmt.Errorf("local chat completion failed: %w", err)
		}

		s.logger.Debug().Str("model", model).Msg("Model rejected response_format, retrying without it")
		request.ResponseFormat = nil
		resp, err = s.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return "", fmt.Errorf("local chat completion failed: %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("local model returned no choices")
	}

	return ExtractJSONObject(resp.Choices[0].Message.Content)
}
