package models

import (
	"time"
)

// Validation verdict constants
const (
	VerdictApproved      = "approved"
	VerdictNeedsRevision = "needs_revision"
)

// CheckResult is one named editorial check for a channel
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Details string `json:"details,omitempty"`
}

// ChannelReport is the per-channel validation outcome. Text channels
// carry a list of checks; schema-validated channels carry a single
// passed flag with details.
type ChannelReport struct {
	Checks  []CheckResult `json:"checks,omitempty"`
	Passed  *bool         `json:"passed,omitempty"`
	Details string        `json:"details,omitempty"`
}

// Failed reports whether the channel needs another reduce pass.
// With checks present any failing check fails the channel; without
// checks the channel passes only on an explicit passed=true.
func (r ChannelReport) Failed() bool {
	if len(r.Checks) > 0 {
		for _, c := range r.Checks {
			if !c.Passed {
				return true
			}
		}
		return false
	}
	return r.Passed == nil || !*r.Passed
}

// Validation is one editorial review pass over generated content.
// Every pass appends a new row; the latest row is authoritative.
type Validation struct {
	ID        string                   `json:"id" badgerhold:"key"`
	SourceID  string                   `json:"source_id" badgerhold:"index"`
	Verdict   string                   `json:"verdict"`
	Report    map[string]ChannelReport `json:"report"`
	CreatedAt time.Time                `json:"created_at"`
}

// MergeReports overlays updated channel entries onto a previous report.
// Channels absent from the update keep their previous entry.
func MergeReports(previous, updated map[string]ChannelReport) map[string]ChannelReport {
	merged := make(map[string]ChannelReport, len(previous)+len(updated))
	for name, entry := range previous {
		merged[name] = entry
	}
	for name, entry := range updated {
		merged[name] = entry
	}
	return merged
}

// ComputeVerdict derives the verdict from a report: approved only when
// no channel failed.
func ComputeVerdict(report map[string]ChannelReport) string {
	for _, entry := range report {
		if entry.Failed() {
			return VerdictNeedsRevision
		}
	}
	return VerdictApproved
}
