package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/models"
)

func testPayload() map[string]string {
	return map[string]string{
		"medium_text":         "Текст для Medium.",
		"habr_text":           "Текст для Хабра.",
		"linkedin_text":       "Пост для LinkedIn.",
		"research_article":    "Научная статья.",
		"banana_video_prompt": `{"style_summary":"s","scenes":[]}`,
		models.PayloadKeyReduceSummary: "внутреннее саммари",
	}
}

func TestRenderMarkdown(t *testing.T) {
	s := NewService(arbor.NewLogger())
	source := &models.Source{ID: "src-1", Title: "Мой доклад"}

	artifact, err := s.Render(source, testPayload(), FormatMarkdown)

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(artifact.Filename, ".md"))

	doc := string(artifact.Data)
	assert.Contains(t, doc, "# Мой доклад")
	assert.Contains(t, doc, "## Medium")
	assert.Contains(t, doc, "## Video Storyboard")
	assert.Contains(t, doc, "```json")
	// Internal summary never leaves the system
	assert.NotContains(t, doc, "внутреннее саммари")
}

func TestRenderHTML(t *testing.T) {
	s := NewService(arbor.NewLogger())
	source := &models.Source{ID: "src-1", Title: "Доклад"}

	artifact, err := s.Render(source, testPayload(), FormatHTML)

	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", artifact.ContentType)
	assert.Contains(t, string(artifact.Data), "<h2")
}

func TestRenderPDF(t *testing.T) {
	s := NewService(arbor.NewLogger())
	source := &models.Source{ID: "src-1", Title: "Report"}

	artifact, err := s.Render(source, testPayload(), FormatPDF)

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.True(t, strings.HasPrefix(string(artifact.Data), "%PDF"))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	s := NewService(arbor.NewLogger())

	_, err := s.Render(&models.Source{ID: "src-1"}, testPayload(), "docx")

	assert.Error(t, err)
}

func TestExportBasename(t *testing.T) {
	tests := []struct {
		name   string
		source *models.Source
		want   string
	}{
		{name: "latin title", source: &models.Source{ID: "src-1", Title: "My Go Talk"}, want: "My-Go-Talk"},
		{name: "cyrillic title falls back to id", source: &models.Source{ID: "src-2", Title: "Доклад"}, want: "src-2"},
		{name: "empty title", source: &models.Source{ID: "src-3"}, want: "src-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exportBasename(tt.source))
		})
	}
}
