package report

import (
	"fmt"
	"io"

	"chatstitch/internal/domain"
)

// BatchStats summarizes one batch for comparison.
type BatchStats struct {
	Name       string
	Parts      int
	Entries    int
	Unique     int
	Duplicates int
	// DupRatio is entries per unique text; Efficiency the inverse share.
	DupRatio   float64
	Efficiency float64
}

// Analyze computes capture-quality statistics for one batch's entries.
func Analyze(name string, entries []domain.RawCaptureEntry) BatchStats {
	stats := BatchStats{Name: name, Entries: len(entries)}

	parts := make(map[int]struct{})
	texts := make(map[string]int)
	for _, e := range entries {
		parts[e.Part] = struct{}{}
		texts[e.RawText]++
	}
	stats.Parts = len(parts)
	stats.Unique = len(texts)
	for _, c := range texts {
		if c > 1 {
			stats.Duplicates += c - 1
		}
	}
	if stats.Unique > 0 {
		stats.DupRatio = float64(stats.Entries) / float64(stats.Unique)
	}
	if stats.Entries > 0 {
		stats.Efficiency = float64(stats.Unique) / float64(stats.Entries) * 100
	}
	return stats
}

// Comparison is the verdict of comparing two capture batches.
type Comparison struct {
	A, B   BatchStats
	Winner string
	Reason string
}

// Compare picks the better capture run: more unique content wins, then
// higher efficiency (less scroll overlap for the same content).
func Compare(a, b BatchStats) Comparison {
	c := Comparison{A: a, B: b}
	switch {
	case a.Unique > b.Unique:
		c.Winner = a.Name
		c.Reason = fmt.Sprintf("more unique content (%d vs %d)", a.Unique, b.Unique)
	case b.Unique > a.Unique:
		c.Winner = b.Name
		c.Reason = fmt.Sprintf("more unique content (%d vs %d)", b.Unique, a.Unique)
	case a.Efficiency > b.Efficiency:
		c.Winner = a.Name
		c.Reason = fmt.Sprintf("higher efficiency with same content (%.1f%% vs %.1f%%)", a.Efficiency, b.Efficiency)
	default:
		c.Winner = b.Name
		c.Reason = fmt.Sprintf("higher efficiency with same content (%.1f%% vs %.1f%%)", b.Efficiency, a.Efficiency)
	}
	return c
}

// Write renders the comparison as plain text.
func (c Comparison) Write(w io.Writer) {
	fmt.Fprintf(w, "%-18s %-14s %s\n", "metric", c.A.Name, c.B.Name)
	fmt.Fprintf(w, "%-18s %-14d %d\n", "part files", c.A.Parts, c.B.Parts)
	fmt.Fprintf(w, "%-18s %-14d %d\n", "total entries", c.A.Entries, c.B.Entries)
	fmt.Fprintf(w, "%-18s %-14d %d\n", "unique messages", c.A.Unique, c.B.Unique)
	fmt.Fprintf(w, "%-18s %-14d %d\n", "duplicate entries", c.A.Duplicates, c.B.Duplicates)
	fmt.Fprintf(w, "%-18s %-14s %s\n", "duplication ratio",
		fmt.Sprintf("%.2fx", c.A.DupRatio), fmt.Sprintf("%.2fx", c.B.DupRatio))
	fmt.Fprintf(w, "%-18s %-14s %s\n", "efficiency",
		fmt.Sprintf("%.1f%%", c.A.Efficiency), fmt.Sprintf("%.1f%%", c.B.Efficiency))
	fmt.Fprintf(w, "\nwinner: %s (%s)\n", c.Winner, c.Reason)
}
