package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiService implements the LLMClient interface using the Google
// Gemini API.
type GeminiService struct {
	client *genai.Client
	logger arbor.ILogger
}

// Compile-time interface check
var _ interfaces.LLMClient = (*GeminiService)(nil)

// NewGeminiService creates a Gemini-backed chat client
func NewGeminiService(ctx context.Context, apiKey string, logger arbor.ILogger) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{
		client: client,
		logger: logger,
	}, nil
}

func (s *GeminiService) Name() string {
	return "gemini"
}

func (s *GeminiService) CompleteText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(textTemperature)),
	}
	return s.generateCompletion(ctx, model, systemPrompt, userPrompt, config)
}

func (s *GeminiService) CompleteJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(jsonTemperature)),
		ResponseMIMEType: "application/json",
	}

	response, err := s.generateCompletion(ctx, model, systemPrompt, userPrompt, config)
	if err != nil {
		return "", err
	}

	return ExtractJSONObject(response)
}

func (s *GeminiService) generateCompletion(ctx context.Context, model, systemPrompt, userPrompt string, config *genai.GenerateContentConfig) (string, error) {
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(userPrompt)},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini generation failed: %w", err)
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Gemini API")
	}

	return response.String(), nil
}
