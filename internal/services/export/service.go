package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Export formats
const (
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
	FormatHTML     = "html"
)

// channelHeadings maps payload keys to human readable section titles
var channelHeadings = map[string]string{
	"medium_text":         "Medium",
	"habr_text":           "Habr",
	"linkedin_text":       "LinkedIn",
	"research_article":    "Research Article",
	"banana_video_prompt": "Video Storyboard",
}

// Service renders approved content payloads into downloadable files
type Service struct {
	markdown goldmark.Markdown
	logger   arbor.ILogger
}

// NewService creates an export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logger,
	}
}

// Artifact is one rendered export file
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Render produces the export artifact for a source payload in the
// requested format.
func (s *Service) Render(source *models.Source, payload map[string]string, format string) (*Artifact, error) {
	markdown := s.composeMarkdown(source, payload)
	base := exportBasename(source)

	switch format {
	case FormatMarkdown:
		return &Artifact{
			Filename:    base + ".md",
			ContentType: "text/markdown; charset=utf-8",
			Data:        []byte(markdown),
		}, nil

	case FormatHTML:
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
			return nil, fmt.Errorf("render HTML: %w", err)
		}
		return &Artifact{
			Filename:    base + ".html",
			ContentType: "text/html; charset=utf-8",
			Data:        buf.Bytes(),
		}, nil

	case FormatPDF:
		data, err := s.renderPDF(source, payload)
		if err != nil {
			return nil, err
		}
		return &Artifact{
			Filename:    base + ".pdf",
			ContentType: "application/pdf",
			Data:        data,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// composeMarkdown joins the channel texts into one document in catalog
// order, skipping channels absent from the payload.
func (s *Service) composeMarkdown(source *models.Source, payload map[string]string) string {
	var b strings.Builder

	title := source.Title
	if title == "" {
		title = source.ID
	}
	b.WriteString("# " + title + "\n\n")

	for _, ch := range models.Channels {
		text, ok := payload[ch.PayloadKey]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}

		heading := channelHeadings[ch.PayloadKey]
		if heading == "" {
			heading = ch.PayloadKey
		}
		b.WriteString("## " + heading + "\n\n")

		if ch.EmitsJSON {
			b.WriteString("```json\n" + strings.TrimSpace(text) + "\n```\n\n")
		} else {
			b.WriteString(strings.TrimSpace(text) + "\n\n")
		}
	}

	return b.String()
}

func (s *Service) renderPDF(source *models.Source, payload map[string]string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	// Cyrillic output needs a unicode translator over the core fonts
	translate := pdf.UnicodeTranslatorFromDescriptor("cp1251")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)

	title := source.Title
	if title == "" {
		title = source.ID
	}
	pdf.MultiCell(0, 8, translate(title), "", "L", false)
	pdf.Ln(4)

	for _, ch := range models.Channels {
		text, ok := payload[ch.PayloadKey]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}

		heading := channelHeadings[ch.PayloadKey]
		if heading == "" {
			heading = ch.PayloadKey
		}

		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, translate(heading), "", "L", false)
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, translate(strings.TrimSpace(text)), "", "L", false)
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func exportBasename(source *models.Source) string {
	name := source.Title
	if name == "" {
		name = source.ID
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}

	cleaned := strings.Trim(b.String(), "-")
	if cleaned == "" {
		cleaned = source.ID
	}
	if len(cleaned) > 64 {
		cleaned = cleaned[:64]
	}
	return cleaned
}
