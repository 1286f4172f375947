package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
)

// NewClientFromConfig builds the configured chat client and resolves
// the per-phase model bindings. The local provider uses the local model
// names; remote providers use the configured tier models.
func NewClientFromConfig(ctx context.Context, config *common.LLMConfig, logger arbor.ILogger) (interfaces.LLMClient, interfaces.ModelTiers, error) {
	switch config.Provider {
	case common.LLMProviderLocal:
		client, err := NewLocalService(config.LocalBaseURL, logger)
		if err != nil {
			return nil, interfaces.ModelTiers{}, err
		}
		tiers := interfaces.ModelTiers{
			Map:        config.LocalMapModel,
			Reduce:     config.LocalTextModel,
			Validation: config.LocalTextModel,
		}
		logger.Info().Str("provider", "local").Str("base_url", config.LocalBaseURL).Msg("LLM client initialized")
		return client, tiers, nil

	case common.LLMProviderRemote:
		tiers := interfaces.ModelTiers{
			Map:        config.MapModel,
			Reduce:     config.ReduceModel,
			Validation: config.ValidationModel,
		}

		var client interfaces.LLMClient
		var err error
		switch config.RemoteBackend {
		case "", "openai":
			client, err = NewOpenAIService(config.APIKey, logger)
		case "claude":
			client, err = NewClaudeService(config.AnthropicAPIKey, logger)
		case "gemini":
			client, err = NewGeminiService(ctx, config.GeminiAPIKey, logger)
		default:
			return nil, interfaces.ModelTiers{}, fmt.Errorf("unknown remote backend: %s", config.RemoteBackend)
		}
		if err != nil {
			return nil, interfaces.ModelTiers{}, err
		}

		logger.Info().Str("provider", "remote").Str("backend", client.Name()).Msg("LLM client initialized")
		return client, tiers, nil

	default:
		return nil, interfaces.ModelTiers{}, fmt.Errorf("unknown LLM provider: %s", config.Provider)
	}
}
