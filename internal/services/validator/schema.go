package validator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/remix/internal/models"
)

var sceneRequiredKeys = []string{"scene_number", "visual_prompt", "voiceover_text"}

// ValidateStoryboard checks the storyboard JSON against its expected
// shape: a style_summary string and a non-empty list of scene objects
// each carrying the required keys. The outcome is a single-flag report
// entry, not a check list.
func ValidateStoryboard(raw string) models.ChannelReport {
	var errors []string

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		errors = append(errors, "payload is not a valid JSON object")
		return storyboardReport(errors)
	}

	if _, ok := data["style_summary"].(string); !ok {
		errors = append(errors, "missing or invalid 'style_summary' (expected string)")
	}

	scenes, ok := data["scenes"].([]interface{})
	if !ok || len(scenes) == 0 {
		errors = append(errors, "missing or empty 'scenes' array")
	} else {
		for i, raw := range scenes {
			scene, ok := raw.(map[string]interface{})
			if !ok {
				errors = append(errors, fmt.Sprintf("scene %d: not an object", i))
				continue
			}

			var missing []string
			for _, key := range sceneRequiredKeys {
				if _, ok := scene[key]; !ok {
					missing = append(missing, key)
				}
			}
			if len(missing) > 0 {
				sort.Strings(missing)
				errors = append(errors, fmt.Sprintf("scene %d: missing keys %s", i, strings.Join(missing, ", ")))
			}
		}
	}

	return storyboardReport(errors)
}

func storyboardReport(errors []string) models.ChannelReport {
	passed := len(errors) == 0
	details := "Valid banana_video_prompt format"
	if !passed {
		details = strings.Join(errors, "; ")
	}
	return models.ChannelReport{
		Passed:  &passed,
		Details: details,
	}
}
