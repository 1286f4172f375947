package models

import (
	"time"
)

// Transcript holds the normalized raw text extracted from a source.
// URL is denormalized from the owning source so cached lookups by URL
// need no join.
type Transcript struct {
	ID          string                 `json:"id" badgerhold:"key"`
	SourceID    string                 `json:"source_id" badgerhold:"index"`
	URL         string                 `json:"url,omitempty" badgerhold:"index"`
	RawText     string                 `json:"raw_text"`
	Language    string                 `json:"language,omitempty"`
	SourceLabel string                 `json:"source_label"` // captions, whisper, article, pdf, epub
	Meta        map[string]interface{} `json:"meta,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// MetaTitle returns the title recorded by the extractor, if any
func (t *Transcript) MetaTitle() string {
	if t.Meta == nil {
		return ""
	}
	if title, ok := t.Meta["title"].(string); ok {
		return title
	}
	return ""
}
