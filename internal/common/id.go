package common

import (
	"github.com/google/uuid"
)

// NewSourceID generates a unique source job ID with the "src_" prefix
// Format: src_<uuid>
func NewSourceID() string {
	return "src_" + uuid.New().String()
}
