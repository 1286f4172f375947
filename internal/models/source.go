package models

import (
	"time"
)

// SourceKind constants
const (
	SourceKindYouTube = "youtube"
	SourceKindWeb     = "web"
	SourceKindPDF     = "pdf"
	SourceKindEPUB    = "epub"
)

// SourceStatus represents the lifecycle state of a source job
type SourceStatus string

const (
	StatusQueued       SourceStatus = "queued"
	StatusExtracting   SourceStatus = "extracting"
	StatusTranscribing SourceStatus = "transcribing"
	StatusChunking     SourceStatus = "chunking"
	StatusMapping      SourceStatus = "mapping"
	StatusReducing     SourceStatus = "reducing"
	StatusValidating   SourceStatus = "validating"
	StatusApproved     SourceStatus = "approved"
	StatusNeedsReview  SourceStatus = "needs_review"
	StatusFailed       SourceStatus = "failed"
)

// IsTerminal returns true for states the pipeline never leaves on its own
func (s SourceStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusNeedsReview || s == StatusFailed
}

// Error code constants for failed jobs
const (
	ErrCodeVideoTooLong          = "video_too_long"
	ErrCodeTooManyChunks         = "too_many_chunks"
	ErrCodeTranscriptUnavailable = "transcript_unavailable"
	ErrCodeLLM                   = "llm_error"
	ErrCodeInternal              = "internal_error"
)

// MaxRegenerations caps user-triggered regeneration attempts per source
const MaxRegenerations = 3

// Progress reports pipeline position as a stage name and a monotonic percent
type Progress struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
}

// Source represents one ingestion job: a URL or uploaded file moving
// through the extract -> transcribe -> generate -> validate pipeline.
type Source struct {
	ID         string       `json:"id" badgerhold:"key"`
	Kind       string       `json:"kind"` // youtube, web, pdf, epub
	URL        string       `json:"url,omitempty"`
	Filename   string       `json:"filename,omitempty"`
	FilePath   string       `json:"-"` // Stored upload location, never serialized
	Title      string       `json:"title,omitempty"`
	Status     SourceStatus `json:"status" badgerhold:"index"`
	Stage      string       `json:"-"`
	Percent    int          `json:"-"`
	ErrorCode  string       `json:"error_code,omitempty"`
	ErrorMsg   string       `json:"error_message,omitempty"`
	RegenCount int          `json:"regen_count"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// ProgressView returns the externally visible progress for the job.
// Terminal success states report done/100, failure reports failed/0.
func (s *Source) ProgressView() Progress {
	switch s.Status {
	case StatusApproved, StatusNeedsReview:
		return Progress{Stage: "done", Percent: 100}
	case StatusFailed:
		return Progress{Stage: "failed", Percent: 0}
	case StatusQueued:
		return Progress{Stage: "queued", Percent: 0}
	default:
		return Progress{Stage: s.Stage, Percent: s.Percent}
	}
}
