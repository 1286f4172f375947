package models

import (
	"time"
)

// PayloadKeyReduceSummary is the payload entry holding the merged
// intermediate summary the channel texts were generated from.
const PayloadKeyReduceSummary = "reduce_summary_text"

// GeneratedContent holds the channel payloads produced by the reduce
// phase, keyed by payload key. One row per source, upserted in place
// on regeneration.
type GeneratedContent struct {
	ID        string            `json:"id" badgerhold:"key"`
	SourceID  string            `json:"source_id" badgerhold:"index"`
	Payload   map[string]string `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
