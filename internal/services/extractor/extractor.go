package extractor

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

// Registry dispatches extraction to the handler for the source kind
type Registry struct {
	extractors []interfaces.Extractor
	logger     arbor.ILogger
}

// NewRegistry wires the built-in extractors
func NewRegistry(config *common.PipelineConfig, logger arbor.ILogger) *Registry {
	return &Registry{
		extractors: []interfaces.Extractor{
			NewYouTubeExtractor(config.MaxVideoDuration, logger),
			NewWebExtractor(logger),
			NewPDFExtractor(logger),
			NewEPUBExtractor(logger),
		},
		logger: logger,
	}
}

// Extract runs the matching extractor for the source
func (r *Registry) Extract(ctx context.Context, source *models.Source, workDir string) (*models.ExtractResult, error) {
	for _, e := range r.extractors {
		if e.Supports(source.Kind) {
			return e.Extract(ctx, source, workDir)
		}
	}
	return nil, fmt.Errorf("no extractor for source kind %q", source.Kind)
}
