package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestChannelReportFailed(t *testing.T) {
	tests := []struct {
		name   string
		report ChannelReport
		failed bool
	}{
		{
			name:   "all checks passed",
			report: ChannelReport{Checks: []CheckResult{{Name: "facts", Passed: true}, {Name: "tone", Passed: true}}},
			failed: false,
		},
		{
			name:   "one check failed",
			report: ChannelReport{Checks: []CheckResult{{Name: "facts", Passed: true}, {Name: "tone", Passed: false}}},
			failed: true,
		},
		{
			name:   "schema passed",
			report: ChannelReport{Passed: boolPtr(true)},
			failed: false,
		},
		{
			name:   "schema failed",
			report: ChannelReport{Passed: boolPtr(false), Details: "scenes must be a non-empty list"},
			failed: true,
		},
		{
			name:   "no checks and no passed flag",
			report: ChannelReport{},
			failed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.failed, tt.report.Failed())
		})
	}
}

func TestMergeReportsNewEntriesWin(t *testing.T) {
	previous := map[string]ChannelReport{
		"medium":   {Checks: []CheckResult{{Name: "facts", Passed: false}}},
		"habr":     {Checks: []CheckResult{{Name: "facts", Passed: true}}},
		"linkedin": {Checks: []CheckResult{{Name: "facts", Passed: true}}},
	}
	updated := map[string]ChannelReport{
		"medium": {Checks: []CheckResult{{Name: "facts", Passed: true}}},
	}

	merged := MergeReports(previous, updated)

	assert.Len(t, merged, 3)
	assert.False(t, merged["medium"].Failed(), "updated entry should replace the failed one")
	assert.False(t, merged["habr"].Failed())
	assert.Equal(t, VerdictApproved, ComputeVerdict(merged))
}

func TestComputeVerdict(t *testing.T) {
	report := map[string]ChannelReport{
		"medium": {Checks: []CheckResult{{Name: "facts", Passed: true}}},
		"habr":   {Checks: []CheckResult{{Name: "facts", Passed: false, Details: "invented numbers"}}},
	}
	assert.Equal(t, VerdictNeedsRevision, ComputeVerdict(report))

	report["habr"] = ChannelReport{Checks: []CheckResult{{Name: "facts", Passed: true}}}
	assert.Equal(t, VerdictApproved, ComputeVerdict(report))

	assert.Equal(t, VerdictApproved, ComputeVerdict(map[string]ChannelReport{}))
}

func TestFailedChannels(t *testing.T) {
	report := map[string]ChannelReport{
		"medium":              {Checks: []CheckResult{{Name: "facts", Passed: false}}},
		"habr":                {Checks: []CheckResult{{Name: "facts", Passed: true}}},
		"linkedin":            {Checks: []CheckResult{{Name: "tone_mismatch", Passed: false}}},
		"research_article":    {Checks: []CheckResult{{Name: "facts", Passed: true}}},
		"banana_video_prompt": {Passed: boolPtr(true)},
	}

	failed := FailedChannels(report)

	var platforms []string
	for _, ch := range failed {
		platforms = append(platforms, ch.Platform)
	}
	assert.Equal(t, []string{"medium", "linkedin"}, platforms)
}

func TestFailedChannelsAcceptsPayloadKeys(t *testing.T) {
	// Reports keyed by payload key instead of platform name still resolve
	report := map[string]ChannelReport{
		"medium_text": {Checks: []CheckResult{{Name: "facts", Passed: false}}},
	}

	failed := FailedChannels(report)

	assert.Len(t, failed, 1)
	assert.Equal(t, "medium", failed[0].Platform)
}

func TestFailedChannelsIgnoresMissingEntries(t *testing.T) {
	report := map[string]ChannelReport{
		"medium": {Checks: []CheckResult{{Name: "facts", Passed: true}}},
	}

	assert.Empty(t, FailedChannels(report))
}
