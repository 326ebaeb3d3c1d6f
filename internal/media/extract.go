// Package media extracts inline base64 images from a media-history capture
// into plain image files on disk.
package media

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Item is one captured media snapshot. Src is usually a data: URI with the
// image payload inlined; anything else is counted but not extracted.
type Item struct {
	TimestampRaw   string `json:"timestamp_raw"`
	TimestampClean string `json:"timestamp_clean"`
	Type           string `json:"type"`
	Src            string `json:"src"`
}

// Stats counts one extraction run. Videos only ever carry thumbnails.
type Stats struct {
	Photos int
	Videos int
	Errors int
}

// Extract reads a media-history JSON file and writes every inline image to
// outDir as <index>_<date>.<ext>. Per-item failures are logged and counted,
// not fatal.
func Extract(jsonPath, outDir string, logger *slog.Logger) (Stats, error) {
	var stats Stats

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return stats, fmt.Errorf("cannot read media history %s: %w", jsonPath, err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return stats, fmt.Errorf("cannot parse media history %s: %w", jsonPath, err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, fmt.Errorf("cannot create output directory %s: %w", outDir, err)
	}

	logger.Info("extracting media", "items", len(items), "output", outDir)

	for i, item := range items {
		if strings.Contains(item.Type, "video") {
			stats.Videos++
		} else {
			stats.Photos++
		}

		if !strings.HasPrefix(item.Src, "data:image") {
			continue
		}
		if err := writeImage(outDir, i, item); err != nil {
			stats.Errors++
			logger.Warn("skipping media item", "index", i, "error", err)
		}
	}

	return stats, nil
}

func writeImage(outDir string, index int, item Item) error {
	header, encoded, ok := strings.Cut(item.Src, ",")
	if !ok {
		return fmt.Errorf("data URI has no payload")
	}
	ext := imageExt(header)
	if ext == "" {
		return fmt.Errorf("unrecognized data URI header %q", header)
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("cannot decode base64 payload: %w", err)
	}

	name := fmt.Sprintf("%04d_%s.%s", index, sanitizeDate(item.TimestampClean), ext)
	if err := os.WriteFile(filepath.Join(outDir, name), payload, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", name, err)
	}
	return nil
}

// imageExt pulls the subtype out of a "data:image/<ext>;base64" header.
func imageExt(header string) string {
	rest, ok := strings.CutPrefix(header, "data:image/")
	if !ok {
		return ""
	}
	ext, _, _ := strings.Cut(rest, ";")
	return ext
}

// sanitizeDate turns a display timestamp into a filename-safe fragment.
func sanitizeDate(ts string) string {
	if ts == "" {
		ts = "unknown_date"
	}
	ts = strings.ReplaceAll(ts, ":", "-")
	ts = strings.ReplaceAll(ts, ",", "")
	return strings.ReplaceAll(ts, " ", "_")
}
