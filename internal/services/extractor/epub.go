package extractor

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

// EPUB is a zip container; the OPF package document lists the reading
// order. Structures below cover just the parts needed to walk it.

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Metadata struct {
		Title string `xml:"title"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// EPUBExtractor pulls chapter text out of an uploaded EPUB
type EPUBExtractor struct {
	logger arbor.ILogger
}

// Compile-time interface check
var _ interfaces.Extractor = (*EPUBExtractor)(nil)

// NewEPUBExtractor creates an EPUB text extractor
func NewEPUBExtractor(logger arbor.ILogger) *EPUBExtractor {
	return &EPUBExtractor{logger: logger}
}

func (e *EPUBExtractor) Supports(kind string) bool {
	return kind == models.SourceKindEPUB
}

func (e *EPUBExtractor) Extract(ctx context.Context, source *models.Source, workDir string) (*models.ExtractResult, error) {
	reader, err := zip.OpenReader(source.FilePath)
	if err != nil {
		return nil, fmt.Errorf("transcript_unavailable: failed to open EPUB: %w", err)
	}
	defer reader.Close()

	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}

	opfPath, err := findOPFPath(files)
	if err != nil {
		return nil, fmt.Errorf("transcript_unavailable: %w", err)
	}

	var pkg epubPackage
	if err := decodeZipXML(files, opfPath, &pkg); err != nil {
		return nil, fmt.Errorf("transcript_unavailable: failed to parse EPUB package: %w", err)
	}

	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		if strings.Contains(item.MediaType, "html") {
			hrefByID[item.ID] = item.Href
		}
	}

	opfDir := path.Dir(opfPath)
	var chapters []string
	for _, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}

		docPath := href
		if opfDir != "." {
			docPath = path.Join(opfDir, href)
		}
		f, ok := files[docPath]
		if !ok {
			continue
		}

		text, err := e.chapterText(f)
		if err != nil {
			e.logger.Warn().Err(err).Str("chapter", docPath).Msg("Skipping unreadable chapter")
			continue
		}
		if text != "" {
			chapters = append(chapters, text)
		}
	}

	if len(chapters) == 0 {
		return nil, fmt.Errorf("transcript_unavailable: EPUB has no extractable text")
	}

	title := strings.TrimSpace(pkg.Metadata.Title)
	if title == "" {
		title = strings.TrimSuffix(source.Filename, filepath.Ext(source.Filename))
	}

	return &models.ExtractResult{
		Text:        strings.Join(chapters, "\n\n"),
		SourceLabel: "epub",
		Meta: map[string]interface{}{
			"title":         title,
			"chapter_count": len(chapters),
		},
	}, nil
}

// chapterText strips markup from one spine document
func (e *EPUBExtractor) chapterText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Remove()

	var lines []string
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		for _, line := range strings.Split(body.Text(), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
	})

	return strings.Join(lines, "\n"), nil
}

func findOPFPath(files map[string]*zip.File) (string, error) {
	var container epubContainer
	if err := decodeZipXML(files, "META-INF/container.xml", &container); err != nil {
		return "", fmt.Errorf("failed to read EPUB container: %w", err)
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return "", fmt.Errorf("EPUB container names no package document")
	}
	return container.Rootfiles[0].FullPath, nil
}

func decodeZipXML(files map[string]*zip.File, name string, v interface{}) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("missing %s", name)
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
