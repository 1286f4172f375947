package validator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

// runeTokenizer treats each rune as one token
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

func (runeTokenizer) Count(text string) int {
	return len([]rune(text))
}

type fakeLLM struct {
	lastSystem string
	lastUser   string
	response   string
	err        error
}

func (f *fakeLLM) CompleteText(ctx context.Context, model, system, user string) (string, error) {
	return "", fmt.Errorf("unexpected text completion")
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, model, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.response, f.err
}

func (f *fakeLLM) Name() string { return "fake" }

func newTestService(llm interfaces.LLMClient) *Service {
	tiers := interfaces.ModelTiers{Validation: "validation-model"}
	return NewService(llm, runeTokenizer{}, tiers, arbor.NewLogger())
}

func passingChecks() string {
	return `{"checks": [
		{"name": "policy_risk", "passed": true, "details": "ok"},
		{"name": "hallucination", "passed": true, "details": "ok"},
		{"name": "tone_mismatch", "passed": true, "details": "ok"}
	]}`
}

func allChannelTexts() map[string]string {
	return map[string]string{
		"medium_text":         "статья для medium",
		"habr_text":           "статья для habr",
		"linkedin_text":       "пост для linkedin",
		"research_article":    "обзорная статья",
		"banana_video_prompt": `{"style_summary": "неон", "scenes": [{"scene_number": 1, "visual_prompt": "city", "voiceover_text": "текст"}]}`,
	}
}

func TestValidateApprovesCleanPayload(t *testing.T) {
	llm := &fakeLLM{
		response: fmt.Sprintf(`{"medium": %s, "habr": %s, "linkedin": %s, "research_article": %s}`,
			passingChecks(), passingChecks(), passingChecks(), passingChecks()),
	}
	svc := newTestService(llm)

	verdict, report, err := svc.Validate(context.Background(), allChannelTexts(), "оригинальный транскрипт", nil)

	require.NoError(t, err)
	assert.Equal(t, models.VerdictApproved, verdict)
	assert.Len(t, report, 5)
	assert.False(t, report["banana_video_prompt"].Failed())

	// Prompt carries the transcript and every prose channel section
	assert.Contains(t, llm.lastUser, "ОРИГИНАЛЬНЫЙ ТРАНСКРИПТ:")
	for _, platform := range []string{"medium", "habr", "linkedin", "research_article"} {
		assert.Contains(t, llm.lastUser, "=== "+platform+" ===")
	}
}

func TestValidateFlagsFailedCheck(t *testing.T) {
	llm := &fakeLLM{
		response: fmt.Sprintf(`{
			"medium": {"checks": [{"name": "hallucination", "passed": false, "details": "выдуманные цифры"}]},
			"habr": %s, "linkedin": %s, "research_article": %s
		}`, passingChecks(), passingChecks(), passingChecks()),
	}
	svc := newTestService(llm)

	verdict, report, err := svc.Validate(context.Background(), allChannelTexts(), "транскрипт", nil)

	require.NoError(t, err)
	assert.Equal(t, models.VerdictNeedsRevision, verdict)
	assert.True(t, report["medium"].Failed())
	assert.False(t, report["habr"].Failed())
}

func TestValidateMissingPlatformGetsErrorEntry(t *testing.T) {
	// Model dropped the linkedin section from its answer
	llm := &fakeLLM{
		response: fmt.Sprintf(`{"medium": %s, "habr": %s, "research_article": %s}`,
			passingChecks(), passingChecks(), passingChecks()),
	}
	svc := newTestService(llm)

	verdict, report, err := svc.Validate(context.Background(), allChannelTexts(), "транскрипт", nil)

	require.NoError(t, err)
	assert.Equal(t, models.VerdictNeedsRevision, verdict)

	entry := report["linkedin"]
	require.Len(t, entry.Checks, 1)
	assert.Equal(t, "error", entry.Checks[0].Name)
	assert.False(t, entry.Checks[0].Passed)
}

func TestValidateRestrictedChannels(t *testing.T) {
	llm := &fakeLLM{
		response: fmt.Sprintf(`{"medium": %s}`, passingChecks()),
	}
	svc := newTestService(llm)

	verdict, report, err := svc.Validate(context.Background(), allChannelTexts(), "транскрипт", []string{"medium_text"})

	require.NoError(t, err)
	assert.Equal(t, models.VerdictApproved, verdict)
	assert.Len(t, report, 1)
	assert.Contains(t, report, "medium")

	// Only the restricted channel appears in the prompt
	assert.Contains(t, llm.lastUser, "=== medium ===")
	assert.NotContains(t, llm.lastUser, "=== habr ===")
}

func TestValidateBananaOnlySkipsModelCall(t *testing.T) {
	llm := &fakeLLM{err: fmt.Errorf("should not be called")}
	svc := newTestService(llm)

	texts := map[string]string{
		"banana_video_prompt": `{"style_summary": "s", "scenes": [{"scene_number": 1, "visual_prompt": "v", "voiceover_text": "t"}]}`,
	}

	verdict, report, err := svc.Validate(context.Background(), texts, "транскрипт", []string{"banana_video_prompt"})

	require.NoError(t, err)
	assert.Equal(t, models.VerdictApproved, verdict)
	assert.Len(t, report, 1)
	assert.False(t, report["banana_video_prompt"].Failed())
}

func TestValidateTruncatesLongTranscript(t *testing.T) {
	llm := &fakeLLM{
		response: fmt.Sprintf(`{"medium": %s}`, passingChecks()),
	}
	svc := newTestService(llm)

	transcript := strings.Repeat("a", maxTranscriptTokens+500)
	_, _, err := svc.Validate(context.Background(), map[string]string{"medium_text": "текст"}, transcript, []string{"medium_text"})

	require.NoError(t, err)
	header := "ОРИГИНАЛЬНЫЙ ТРАНСКРИПТ:\n"
	idx := strings.Index(llm.lastUser, "\n\nТЕКСТЫ ДЛЯ ПРОВЕРКИ:")
	require.Greater(t, idx, 0)
	sent := llm.lastUser[len(header):idx]
	assert.Len(t, []rune(sent), maxTranscriptTokens)
}

func TestValidateStoryboard(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		passed  bool
		details string
	}{
		{
			name:   "valid storyboard",
			raw:    `{"style_summary": "неон", "scenes": [{"scene_number": 1, "visual_prompt": "city", "voiceover_text": "текст"}]}`,
			passed: true,
		},
		{
			name:    "not json",
			raw:     "просто текст",
			passed:  false,
			details: "payload is not a valid JSON object",
		},
		{
			name:    "missing style_summary",
			raw:     `{"scenes": [{"scene_number": 1, "visual_prompt": "v", "voiceover_text": "t"}]}`,
			passed:  false,
			details: "missing or invalid 'style_summary' (expected string)",
		},
		{
			name:    "empty scenes",
			raw:     `{"style_summary": "s", "scenes": []}`,
			passed:  false,
			details: "missing or empty 'scenes' array",
		},
		{
			name:    "scene not an object",
			raw:     `{"style_summary": "s", "scenes": ["oops"]}`,
			passed:  false,
			details: "scene 0: not an object",
		},
		{
			name:    "scene missing keys",
			raw:     `{"style_summary": "s", "scenes": [{"scene_number": 1}]}`,
			passed:  false,
			details: "scene 0: missing keys visual_prompt, voiceover_text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ValidateStoryboard(tt.raw)
			require.NotNil(t, report.Passed)
			assert.Equal(t, tt.passed, *report.Passed)
			if tt.details != "" {
				assert.Contains(t, report.Details, tt.details)
			}
		})
	}
}
