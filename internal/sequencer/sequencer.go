// Package sequencer turns a directory tree of capture part files into one
// flat, temporally ordered stream of raw entries. Order is derived from the
// file layout, not from timestamps: batch directories carry a numeric batch
// id in their name, part files a numeric part id, and entries keep their
// position within the file.
package sequencer

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"chatstitch/internal/domain"
)

var digitsRE = regexp.MustCompile(`(\d+)`)

// Sequencer discovers, orders, and loads capture part files.
type Sequencer struct {
	root   string
	glob   string
	logger *slog.Logger
}

// New returns a Sequencer scanning root for files matching glob
// (e.g. "messenger_row_part*.json").
func New(root, glob string, logger *slog.Logger) *Sequencer {
	return &Sequencer{root: root, glob: glob, logger: logger}
}

// Sequence loads every part file into one flat entry stream. When targetDir
// is non-empty only that directory is scanned (non-recursively); otherwise
// the whole root is walked. A missing root or target is a hard error; an
// individual unreadable or malformed part file is skipped with a warning.
func (s *Sequencer) Sequence(targetDir string) ([]domain.RawCaptureEntry, error) {
	files, err := s.Files(targetDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		dir := targetDir
		if dir == "" {
			dir = s.root
		}
		return nil, fmt.Errorf("no capture part files matching %q under %s", s.glob, dir)
	}
	return s.load(files), nil
}

// Files returns the matching part files in (batch_number, part_number) order.
func (s *Sequencer) Files(targetDir string) ([]string, error) {
	var files []string

	if targetDir != "" {
		if _, err := os.Stat(targetDir); err != nil {
			return nil, fmt.Errorf("batch directory %s: %w", targetDir, err)
		}
		matches, err := filepath.Glob(filepath.Join(targetDir, s.glob))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", s.glob, err)
		}
		files = matches
	} else {
		if _, err := os.Stat(s.root); err != nil {
			return nil, fmt.Errorf("raw data root %s: %w", s.root, err)
		}
		err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ok, matchErr := filepath.Match(s.glob, d.Name())
			if matchErr != nil {
				return matchErr
			}
			if ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.root, err)
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		bi, bj := BatchNumber(files[i]), BatchNumber(files[j])
		if bi != bj {
			return bi < bj
		}
		return PartNumber(files[i]) < PartNumber(files[j])
	})
	return files, nil
}

func (s *Sequencer) load(files []string) []domain.RawCaptureEntry {
	var entries []domain.RawCaptureEntry
	loaded := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("cannot read part file, skipping", "path", path, "err", err)
			continue
		}

		var rows []domain.RawCaptureEntry
		if err := json.Unmarshal(data, &rows); err != nil {
			s.logger.Warn("part file is not a valid entry array, skipping", "path", path, "err", err)
			continue
		}

		batch := filepath.Base(filepath.Dir(path))
		part := PartNumber(path)
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		for i := range rows {
			rows[i].SourceFile = rel
			rows[i].Batch = batch
			rows[i].Part = part
			rows[i].Index = i
			if rows[i].Sender == "" {
				rows[i].Sender = "Unknown"
			}
		}
		entries = append(entries, rows...)
		loaded++
	}
	s.logger.Info("sequenced capture corpus", "files", loaded, "skipped", len(files)-loaded, "entries", len(entries))
	return entries
}

// PartNumber extracts the numeric part id from a part file path. It prefers
// the last all-digit underscore token of the stem, so copy markers like
// "part_12 (1).json" still resolve to 12; failing that, the first digit run
// anywhere in the stem. Unparsable names default to 0.
func PartNumber(path string) int {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tokens := strings.Split(stem, "_")
	for i := len(tokens) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(tokens[i]); err == nil {
			return n
		}
	}
	if m := digitsRE.FindString(stem); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}

// BatchNumber extracts the numeric batch id from the part file's parent
// directory name (batch19 -> 19). Unparsable names default to 0.
func BatchNumber(path string) int {
	dir := filepath.Base(filepath.Dir(path))
	if m := digitsRE.FindString(dir); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}
