package generator

import (
	"github.com/ternarybob/remix/internal/interfaces"
)

// Token windowing for the map phase. Consecutive chunks share the
// overlap so sentences cut at a boundary survive in the next chunk.
const (
	chunkWindow  = 3000
	chunkOverlap = 200
)

// chunkByTokens slices text into overlapping token windows. Text that
// fails to produce any window comes back as a single chunk untouched.
func chunkByTokens(counter interfaces.TokenCounter, text string) []string {
	tokens := counter.Encode(text)

	var chunks []string
	start := 0
	for start < len(tokens) {
		end := start + chunkWindow
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, counter.Decode(tokens[start:end]))
		if end >= len(tokens) {
			break
		}
		start = end - chunkOverlap
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
