package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?})\\s*```")
	bareJSONRe   = regexp.MustCompile(`(?s)\{.*}`)
)

// ExtractJSONObject recovers a JSON object from model output that may
// wrap it in markdown fences or surrounding prose. Returns the object
// text verbatim when the whole response already decodes.
func ExtractJSONObject(response string) (string, error) {
	if json.Valid([]byte(response)) {
		return response, nil
	}

	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		if json.Valid([]byte(m[1])) {
			return m[1], nil
		}
	}

	if m := bareJSONRe.FindString(response); m != "" {
		if json.Valid([]byte(m)) {
			return m, nil
		}
	}

	return "", fmt.Errorf("no valid JSON object in model response")
}
