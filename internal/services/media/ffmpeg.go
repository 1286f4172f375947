package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Duration returns the length of a media file in seconds via ffprobe
func Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", filepath.Base(path), err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// SegmentAudio splits an audio file into fixed-length segments with
// ffmpeg and returns the segment paths in playback order. outDir must
// exist.
func SegmentAudio(ctx context.Context, path, outDir string, chunkSeconds int) ([]string, error) {
	pattern := filepath.Join(outDir, "segment_%04d"+filepath.Ext(path))

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-c", "copy",
		pattern,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg segmentation failed: %s: %w", strings.TrimSpace(string(out)), err)
	}

	segments, err := filepath.Glob(filepath.Join(outDir, "segment_*"+filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no segments")
	}

	sort.Strings(segments)
	return segments, nil
}
