package pipeline

import (
	"strings"

	"github.com/ternarybob/remix/internal/models"
)

// codeMarkers maps embedded error markers to job error codes, checked
// in order so the most specific marker wins.
var codeMarkers = []string{
	models.ErrCodeVideoTooLong,
	models.ErrCodeTooManyChunks,
	models.ErrCodeTranscriptUnavailable,
}

// Classify maps a pipeline error to the job error code and message.
// Extractors and the transcriber embed their code as a literal marker
// in the error text; provider failures fall through to llm_error.
func Classify(err error) (string, string) {
	if err == nil {
		return "", ""
	}

	message := err.Error()
	for _, code := range codeMarkers {
		if strings.Contains(message, code) {
			return code, message
		}
	}

	lower := strings.ToLower(message)
	if strings.Contains(lower, "llm") || strings.Contains(lower, "openai") {
		return models.ErrCodeLLM, message
	}

	return models.ErrCodeInternal, message
}
