package validator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

// maxTranscriptTokens caps the source text sent to the reviewing model
const maxTranscriptTokens = 60000

const validatorSystemPrompt = "Ты — строгий, но справедливый редактор-фактчекер. Проверь предоставленные тексты, написанные для " +
	"разных платформ, по трём критериям.\n\n" +
	"Для каждого критерия определи, пройдена ли проверка (passed: true/false), " +
	"и дай краткое пояснение (details).\n\n" +
	"Критерии:\n" +
	"1. policy_risk — содержит ли текст потенциально опасный, незаконный, " +
	"оскорбительный или неэтичный контент?\n" +
	"2. hallucination — содержит ли текст ВЫДУМАННЫЕ факты: конкретные цифры, " +
	"статистику, даты, имена людей или названия организаций, " +
	"которых НЕТ в оригинальном тексте (транскрипте/саммари)?\n" +
	"   САМОЕ ВАЖНОЕ: \n" +
	"   - Оценочные суждения (например, 'оказал огромное влияние', 'стал хитом'), " +
	"логические выводы, обобщения, метафоры, анализ динамики событий/персонажей — это НЕ галлюцинации!\n" +
	"   - Мелкие неточности, синонимы или округления (например, '15-16' вместо '15') — это НЕ галлюцинации!\n" +
	"   - Отсутствие каких-либо фактов из оригинала в сгенерированном тексте — это НЕ галлюцинация! Текст не обязан перечислять всё.\n" +
	"   - Перефразирование и добавление общеизвестного контекста для связности — это НЕ галлюцинация.\n" +
	"   - Галлюцинация — это ТОЛЬКО откровенно выдуманные КОНКРЕТНЫЕ факты (неправильные даты, несуществующие имена, ложная статистика), которых нет в исходнике и которые радикально искажают смысл.\n" +
	"   Если сомневаешься, или если это просто аналитический вывод из текста, считай, что проверка пройдена (passed: true).\n" +
	"3. tone_mismatch — соответствует ли тон и стиль текста целевой платформе?\n\n" +
	"Ответ строго в формате JSON, где ключи - это названия платформ, " +
	"а значения - результаты проверок:\n" +
	"{\n" +
	"  \"PLATFORM_NAME\": {\n" +
	"    \"checks\": [\n" +
	"      {\"name\": \"policy_risk\", \"passed\": true, \"details\": \"...\"},\n" +
	"      {\"name\": \"hallucination\", \"passed\": true, \"details\": \"...\"},\n" +
	"      {\"name\": \"tone_mismatch\", \"passed\": true, \"details\": \"...\"}\n" +
	"    ]\n" +
	"  }\n" +
	"}"

// Service reviews generated channel payloads against the source text
type Service struct {
	llm    interfaces.LLMClient
	tokens interfaces.TokenCounter
	tiers  interfaces.ModelTiers
	logger arbor.ILogger
}

// NewService creates a validator bound to a chat client and model tiers
func NewService(llm interfaces.LLMClient, tokens interfaces.TokenCounter, tiers interfaces.ModelTiers, logger arbor.ILogger) *Service {
	return &Service{
		llm:    llm,
		tokens: tokens,
		tiers:  tiers,
		logger: logger,
	}
}

// Validate reviews the payload texts against the transcript. channels,
// when non-nil, restricts the review to the named payload keys. The
// returned report is keyed by platform name.
func (s *Service) Validate(ctx context.Context, texts map[string]string, transcript string, channels []string) (string, map[string]models.ChannelReport, error) {
	report := make(map[string]models.ChannelReport)

	truncated := s.truncateTranscript(transcript)

	var targetKeys map[string]bool
	if channels != nil {
		targetKeys = make(map[string]bool, len(channels))
		for _, key := range channels {
			targetKeys[key] = true
		}
	}

	// Collect prose channels with generated text in scope
	platformsToCheck := make(map[string]string)
	var checkOrder []string
	for _, ch := range models.Channels {
		if ch.EmitsJSON {
			continue
		}
		if targetKeys != nil && !targetKeys[ch.PayloadKey] {
			continue
		}
		if text := texts[ch.PayloadKey]; text != "" {
			platformsToCheck[ch.Platform] = text
			checkOrder = append(checkOrder, ch.Platform)
		}
	}

	if len(platformsToCheck) > 0 {
		userPrompt := fmt.Sprintf("ОРИГИНАЛЬНЫЙ ТРАНСКРИПТ:\n%s\n\nТЕКСТЫ ДЛЯ ПРОВЕРКИ:\n", truncated)
		for _, platform := range checkOrder {
			userPrompt += fmt.Sprintf("=== %s ===\n%s\n\n", platform, platformsToCheck[platform])
		}

		raw, err := s.llm.CompleteJSON(ctx, s.tiers.Validation, validatorSystemPrompt, userPrompt)
		if err != nil {
			return "", nil, fmt.Errorf("llm validation failed: %w", err)
		}

		var result map[string]models.ChannelReport
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			return "", nil, fmt.Errorf("llm validation returned undecodable report: %w", err)
		}

		for _, platform := range checkOrder {
			entry, ok := result[platform]
			if !ok {
				entry = models.ChannelReport{Checks: []models.CheckResult{{
					Name:    "error",
					Passed:  false,
					Details: "Validation failed to return result for this platform",
				}}}
			}
			report[platform] = entry
		}
	}

	// Storyboard channel is schema-checked locally, no model call
	if banana, ok := texts["banana_video_prompt"]; ok {
		if targetKeys == nil || targetKeys["banana_video_prompt"] {
			report["banana_video_prompt"] = ValidateStoryboard(banana)
		}
	}

	verdict := models.ComputeVerdict(report)
	s.logger.Info().Str("verdict", verdict).Msg("Validation verdict")

	return verdict, report, nil
}

func (s *Service) truncateTranscript(transcript string) string {
	tokens := s.tokens.Encode(transcript)
	if len(tokens) <= maxTranscriptTokens {
		return transcript
	}
	s.logger.Warn().
		Int("tokens", len(tokens)).
		Int("limit", maxTranscriptTokens).
		Msg("Truncating transcript for validation")
	return s.tokens.Decode(tokens[:maxTranscriptTokens])
}
