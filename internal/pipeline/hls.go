package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// RenderPlaylist writes the queue to path as an HLS playlist. The real
// segmenter (ffmpeg or similar) is an external tool this package never
// invokes; absent it, this falls back to a static playlist listing each
// entry's asset with a fixed 600-second segment duration.
func RenderPlaylist(path string, entries []domain.QueueEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create playlist directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, e := range entries {
		b.WriteString("#EXTINF:600,\n")
		b.WriteString(fmt.Sprintf("assets/%s.ts\n", e.AssetID))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write playlist %s: %w", path, err)
	}
	return nil
}
