package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

// PDFExtractor pulls page text out of an uploaded PDF using pdfcpu
type PDFExtractor struct {
	logger arbor.ILogger
}

// Compile-time interface check
var _ interfaces.Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF text extractor
func NewPDFExtractor(logger arbor.ILogger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

func (e *PDFExtractor) Supports(kind string) bool {
	return kind == models.SourceKindPDF
}

func (e *PDFExtractor) Extract(ctx context.Context, source *models.Source, workDir string) (*models.ExtractResult, error) {
	conf := model.NewDefaultConfiguration()

	pdfCtx, err := api.ReadContextFile(source.FilePath)
	if err != nil {
		return nil, fmt.Errorf("transcript_unavailable: failed to read PDF: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(workDir, "pdf_pages")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(source.FilePath, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("transcript_unavailable: PDF content extraction failed: %w", err)
	}

	// Content files are named per page; reassemble in page order
	files, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction dir: %w", err)
	}

	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = string(content)
	}

	var parts []string
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text := strings.TrimSpace(pageTexts[pageNum]); text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.Join(parts, "\n\n")
	if text == "" {
		return nil, fmt.Errorf("transcript_unavailable: PDF has no extractable text")
	}

	title := strings.TrimSuffix(source.Filename, filepath.Ext(source.Filename))

	return &models.ExtractResult{
		Text:        text,
		SourceLabel: "pdf",
		Meta: map[string]interface{}{
			"title":      title,
			"page_count": pageCount,
		},
	}, nil
}
