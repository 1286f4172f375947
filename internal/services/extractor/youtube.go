package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
	"github.com/lrstanley/go-ytdlp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
	"github.com/ternarybob/remix/internal/services/media"
)

// Audio containers yt-dlp may leave behind when mp3 post-processing is
// unavailable, in preference order.
var audioExtFallbacks = []string{"mp3", "m4a", "webm", "opus", "ogg"}

// YouTubeExtractor resolves a video URL into caption text, falling
// back to an audio download for the transcriber.
type YouTubeExtractor struct {
	maxDuration int // seconds
	logger      arbor.ILogger
}

// Compile-time interface check
var _ interfaces.Extractor = (*YouTubeExtractor)(nil)

// NewYouTubeExtractor creates a YouTube extractor with the duration cap
func NewYouTubeExtractor(maxDuration int, logger arbor.ILogger) *YouTubeExtractor {
	return &YouTubeExtractor{
		maxDuration: maxDuration,
		logger:      logger,
	}
}

func (e *YouTubeExtractor) Supports(kind string) bool {
	return kind == models.SourceKindYouTube
}

func (e *YouTubeExtractor) Extract(ctx context.Context, source *models.Source, workDir string) (*models.ExtractResult, error) {
	title := e.fetchTitle(ctx, source.URL)

	// Captions first: cheaper and usually cleaner than re-transcribing
	text, lang, err := e.fetchCaptions(ctx, source.URL, workDir)
	if err == nil && strings.TrimSpace(text) != "" {
		e.logger.Info().Str("source_id", source.ID).Str("lang", lang).Msg("Using video captions")
		return &models.ExtractResult{
			Text:        text,
			Language:    lang,
			SourceLabel: "captions",
			Meta:        map[string]interface{}{"title": title},
		}, nil
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("source_id", source.ID).Msg("Caption fetch failed, downloading audio")
	}

	audioPath, err := e.downloadAudio(ctx, source.URL, workDir)
	if err != nil {
		return nil, err
	}

	// The duration gate runs after download; yt-dlp metadata lies less
	// than listing pages but the local file never does
	duration, err := media.Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcript_unavailable: cannot probe downloaded audio: %w", err)
	}
	if int(duration) > e.maxDuration {
		return nil, fmt.Errorf("video_too_long: duration %.0fs exceeds limit %ds", duration, e.maxDuration)
	}

	return &models.ExtractResult{
		NeedsTranscription: true,
		AudioPath:          audioPath,
		SourceLabel:        "whisper",
		Meta:               map[string]interface{}{"title": title, "duration_seconds": duration},
	}, nil
}

// fetchTitle asks yt-dlp for the video title without downloading
func (e *YouTubeExtractor) fetchTitle(ctx context.Context, url string) string {
	result, err := ytdlp.New().
		SkipDownload().
		Print("title").
		Run(ctx, url)
	if err != nil {
		e.logger.Debug().Err(err).Msg("Title lookup failed")
		return ""
	}
	return strings.TrimSpace(result.Stdout)
}

// fetchCaptions downloads subtitle tracks preferring ru, then en, then
// whatever track exists, and flattens the cues into plain text.
func (e *YouTubeExtractor) fetchCaptions(ctx context.Context, url, workDir string) (string, string, error) {
	capDir := filepath.Join(workDir, "captions")
	if err := os.MkdirAll(capDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create captions dir: %w", err)
	}

	_, err := ytdlp.New().
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubLangs("ru,en").
		SubFormat("vtt").
		Output(filepath.Join(capDir, "captions.%(ext)s")).
		Run(ctx, url)
	if err != nil {
		return "", "", fmt.Errorf("yt-dlp caption fetch failed: %w", err)
	}

	capPath, lang := pickCaptionFile(capDir)
	if capPath == "" {
		return "", "", fmt.Errorf("no caption tracks available")
	}

	subs, err := astisub.OpenFile(capPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse captions: %w", err)
	}

	var b strings.Builder
	for _, item := range subs.Items {
		for _, line := range item.Lines {
			for _, li := range line.Items {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(li.Text)
			}
		}
	}

	return b.String(), lang, nil
}

// pickCaptionFile prefers captions.ru.vtt, then captions.en.vtt, then
// any .vtt track in the directory.
func pickCaptionFile(dir string) (string, string) {
	for _, lang := range []string{"ru", "en"} {
		path := filepath.Join(dir, "captions."+lang+".vtt")
		if _, err := os.Stat(path); err == nil {
			return path, lang
		}
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.vtt"))
	if len(matches) == 0 {
		return "", ""
	}

	// captions.<lang>.vtt
	name := filepath.Base(matches[0])
	parts := strings.Split(name, ".")
	lang := ""
	if len(parts) == 3 {
		lang = parts[1]
	}
	return matches[0], lang
}

// downloadAudio fetches the best audio track as mp3 into the workdir
func (e *YouTubeExtractor) downloadAudio(ctx context.Context, url, workDir string) (string, error) {
	_, err := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("mp3").
		Output(filepath.Join(workDir, "audio.%(ext)s")).
		Run(ctx, url)
	if err != nil {
		return "", fmt.Errorf("transcript_unavailable: audio download failed: %w", err)
	}

	for _, ext := range audioExtFallbacks {
		path := filepath.Join(workDir, "audio."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("transcript_unavailable: downloaded audio file not found")
}
