// Package report inspects raw capture batches and cleaned transcripts:
// coverage and duplication per batch, cross-batch overlap, side-by-side
// batch comparison, and chronological sanity of timestamp labels.
package report

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"chatstitch/internal/domain"
)

// dateMarkerRE finds date-like fragments in raw text. Markers are a
// heuristic coverage signal only — captures rarely carry full timestamps.
var dateMarkerRE = regexp.MustCompile(
	`(?i)(?:\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|` +
		`(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?,?\s+\d{1,2}|` +
		`\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec))`,
)

// MarkerCount is one date marker and how often it appeared.
type MarkerCount struct {
	Marker string
	Count  int
}

// BatchSummary aggregates one batch's raw entries.
type BatchSummary struct {
	Name        string
	Files       int
	Entries     int
	UniqueTexts int
	Duplicates  int
	FirstMarker string
	LastMarker  string
	TopMarkers  []MarkerCount
}

// DupSample is a message key captured by more than one batch.
type DupSample struct {
	Sender      string
	TextPreview string
	Batches     []string
}

// Report is the corpus-wide coverage and duplication summary.
type Report struct {
	Files             int
	Entries           int
	Batches           []BatchSummary
	TopMarkers        []MarkerCount
	CrossBatchKeys    int
	CrossBatchSamples []DupSample
}

type dupKey struct {
	sender string
	text   string
	media  string
}

// Batches builds a coverage report over a sequenced corpus. topN bounds the
// marker histograms and sampleN the cross-batch duplicate samples.
func Batches(entries []domain.RawCaptureEntry, topN, sampleN int) *Report {
	r := &Report{Entries: len(entries)}

	files := make(map[string]struct{})
	type batchAgg struct {
		files       map[string]struct{}
		entries     int
		texts       map[string]int
		markers     map[string]int
		first, last string
	}
	batches := make(map[string]*batchAgg)
	global := make(map[string]int)
	dupBatches := make(map[dupKey]map[string]struct{})

	for _, e := range entries {
		files[e.SourceFile] = struct{}{}

		b := batches[e.Batch]
		if b == nil {
			b = &batchAgg{
				files:   make(map[string]struct{}),
				texts:   make(map[string]int),
				markers: make(map[string]int),
			}
			batches[e.Batch] = b
		}
		b.files[e.SourceFile] = struct{}{}
		b.entries++
		b.texts[e.RawText]++

		media := append([]string(nil), e.MediaURLs...)
		sort.Strings(media)
		key := dupKey{sender: e.Sender, text: strings.TrimSpace(e.RawText), media: strings.Join(media, "|")}
		set := dupBatches[key]
		if set == nil {
			set = make(map[string]struct{})
			dupBatches[key] = set
		}
		set[e.Batch] = struct{}{}

		for _, marker := range dateMarkerRE.FindAllString(e.RawText, -1) {
			global[marker]++
			b.markers[marker]++
			if b.first == "" {
				b.first = marker
			}
			b.last = marker
		}
	}

	r.Files = len(files)
	r.TopMarkers = topMarkers(global, topN)

	names := make([]string, 0, len(batches))
	for name := range batches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := batches[name]
		dups := 0
		for _, c := range b.texts {
			if c > 1 {
				dups += c - 1
			}
		}
		r.Batches = append(r.Batches, BatchSummary{
			Name:        name,
			Files:       len(b.files),
			Entries:     b.entries,
			UniqueTexts: len(b.texts),
			Duplicates:  dups,
			FirstMarker: b.first,
			LastMarker:  b.last,
			TopMarkers:  topMarkers(b.markers, 5),
		})
	}

	for key, set := range dupBatches {
		if len(set) < 2 {
			continue
		}
		r.CrossBatchKeys++
		if len(r.CrossBatchSamples) < sampleN {
			var names []string
			for b := range set {
				names = append(names, b)
			}
			sort.Strings(names)
			r.CrossBatchSamples = append(r.CrossBatchSamples, DupSample{
				Sender:      key.sender,
				TextPreview: preview(key.text, 80),
				Batches:     names,
			})
		}
	}
	sort.Slice(r.CrossBatchSamples, func(i, j int) bool {
		return r.CrossBatchSamples[i].TextPreview < r.CrossBatchSamples[j].TextPreview
	})

	return r
}

// Write renders the report as plain text.
func (r *Report) Write(w io.Writer) {
	fmt.Fprintf(w, "Files: %d\nEntries: %d\n\n", r.Files, r.Entries)

	fmt.Fprintln(w, "Entries per batch:")
	for _, b := range r.Batches {
		fmt.Fprintf(w, "  %s: files=%d entries=%d unique=%d duplicates=%d\n",
			b.Name, b.Files, b.Entries, b.UniqueTexts, b.Duplicates)
	}

	fmt.Fprintln(w, "\nTop date markers (global):")
	for _, m := range r.TopMarkers {
		fmt.Fprintf(w, "  %s: %d\n", m.Marker, m.Count)
	}

	fmt.Fprintln(w, "\nFirst/last date markers per batch (order of appearance):")
	for _, b := range r.Batches {
		first, last := b.FirstMarker, b.LastMarker
		if first == "" {
			first = "none"
		}
		if last == "" {
			last = "none"
		}
		fmt.Fprintf(w, "  %s: first=%s | last=%s\n", b.Name, first, last)
	}

	fmt.Fprintf(w, "\nMessage keys spanning more than one batch: %d\n", r.CrossBatchKeys)
	for _, s := range r.CrossBatchSamples {
		fmt.Fprintf(w, "  sender=%s batches=%v text=%q\n", s.Sender, s.Batches, s.TextPreview)
	}

	if len(r.TopMarkers) == 0 {
		fmt.Fprintln(w, "\nNo date-like markers found; marker coverage is unavailable for this corpus.")
	}
}

func topMarkers(counts map[string]int, n int) []MarkerCount {
	out := make([]MarkerCount, 0, len(counts))
	for m, c := range counts {
		out = append(out, MarkerCount{Marker: m, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Marker < out[j].Marker
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func preview(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " | ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
