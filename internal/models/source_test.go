package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressView(t *testing.T) {
	tests := []struct {
		name     string
		source   Source
		expected Progress
	}{
		{
			name:     "queued",
			source:   Source{Status: StatusQueued},
			expected: Progress{Stage: "queued", Percent: 0},
		},
		{
			name:     "mid pipeline",
			source:   Source{Status: StatusMapping, Stage: "mapping", Percent: 35},
			expected: Progress{Stage: "mapping", Percent: 35},
		},
		{
			name:     "approved reports done",
			source:   Source{Status: StatusApproved, Stage: "validating", Percent: 85},
			expected: Progress{Stage: "done", Percent: 100},
		},
		{
			name:     "needs_review reports done",
			source:   Source{Status: StatusNeedsReview, Stage: "validating", Percent: 85},
			expected: Progress{Stage: "done", Percent: 100},
		},
		{
			name:     "failed resets percent",
			source:   Source{Status: StatusFailed, Stage: "transcribing", Percent: 10},
			expected: Progress{Stage: "failed", Percent: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.source.ProgressView())
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusNeedsReview.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusReducing.IsTerminal())
}

func TestChannelCatalog(t *testing.T) {
	assert.Len(t, Channels, 5)

	ch, ok := ChannelByPlatform("banana_video_prompt")
	assert.True(t, ok)
	assert.True(t, ch.EmitsJSON)

	ch, ok = ChannelByPayloadKey("medium_text")
	assert.True(t, ok)
	assert.Equal(t, "medium", ch.Platform)

	_, ok = ChannelByPlatform("tiktok")
	assert.False(t, ok)
}
