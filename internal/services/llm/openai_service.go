package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
)

// Completion temperatures. JSON outputs run colder so structured
// payloads stay schema-shaped.
const (
	textTemperature = 0.3
	jsonTemperature = 0.1
)

// OpenAIService implements the LLMClient interface against the OpenAI API
type OpenAIService struct {
	client *openai.Client
	logger arbor.ILogger
}

// Compile-time interface check
var _ interfaces.LLMClient = (*OpenAIService)(nil)

// NewOpenAIService creates an OpenAI-backed chat client
func NewOpenAIService(apiKey string, logger arbor.ILogger) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return &OpenAIService{
		client: openai.NewClient(apiKey),
		logger: logger,
	}, nil
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) CompleteText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: textTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) CompleteJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: jsonTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return ExtractJSONObject(resp.Choices[0].Message.Content)
}
