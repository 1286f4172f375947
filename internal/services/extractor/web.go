package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

const webUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Elements stripped before content selection
var strippedSelectors = []string{"script", "style", "nav", "header", "footer", "aside", "noscript"}

// WebExtractor pulls article text out of a web page as markdown
type WebExtractor struct {
	client *http.Client
	logger arbor.ILogger
}

// Compile-time interface check
var _ interfaces.Extractor = (*WebExtractor)(nil)

// NewWebExtractor creates a web article extractor
func NewWebExtractor(logger arbor.ILogger) *WebExtractor {
	return &WebExtractor{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (e *WebExtractor) Supports(kind string) bool {
	return kind == models.SourceKindWeb
}

func (e *WebExtractor) Extract(ctx context.Context, source *models.Source, workDir string) (*models.ExtractResult, error) {
	target, err := encodeURL(source.URL)
	if err != nil {
		return nil, fmt.Errorf("transcript_unavailable: invalid article URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript_unavailable: article fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript_unavailable: article fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML: %w", err)
	}

	for _, sel := range strippedSelectors {
		doc.Find(sel).Remove()
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}

	html, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize article content: %w", err)
	}

	converter := md.NewConverter(hostOf(target), true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("failed to convert article to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, fmt.Errorf("transcript_unavailable: article has no extractable text")
	}

	return &models.ExtractResult{
		Text:        markdown,
		SourceLabel: "article",
		Meta:        map[string]interface{}{"title": title, "url": target},
	}, nil
}

// encodeURL normalizes a possibly non-ASCII URL into its
// percent-encoded form
func encodeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url missing scheme or host")
	}
	return u.String(), nil
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Host
	}
	return ""
}
