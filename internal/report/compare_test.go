package report

import (
	"bytes"
	"strings"
	"testing"

	"chatstitch/internal/domain"
)

func TestAnalyze(t *testing.T) {
	entries := []domain.RawCaptureEntry{
		{Part: 1, RawText: "a"},
		{Part: 1, RawText: "a"},
		{Part: 2, RawText: "b"},
		{Part: 2, RawText: "c"},
	}
	stats := Analyze("run1", entries)

	if stats.Parts != 2 || stats.Entries != 4 || stats.Unique != 3 || stats.Duplicates != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.DupRatio < 1.33 || stats.DupRatio > 1.34 {
		t.Errorf("dup ratio = %f", stats.DupRatio)
	}
	if stats.Efficiency != 75 {
		t.Errorf("efficiency = %f", stats.Efficiency)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	stats := Analyze("empty", nil)
	if stats.Entries != 0 || stats.DupRatio != 0 || stats.Efficiency != 0 {
		t.Errorf("unexpected stats for empty batch: %+v", stats)
	}
}

func TestCompare_UniqueContentWins(t *testing.T) {
	a := BatchStats{Name: "run1", Entries: 100, Unique: 40, Efficiency: 40}
	b := BatchStats{Name: "run2", Entries: 50, Unique: 45, Efficiency: 90}
	c := Compare(a, b)
	if c.Winner != "run2" {
		t.Errorf("winner = %s (%s)", c.Winner, c.Reason)
	}
}

func TestCompare_EfficiencyBreaksTie(t *testing.T) {
	a := BatchStats{Name: "run1", Entries: 100, Unique: 40, Efficiency: 40}
	b := BatchStats{Name: "run2", Entries: 50, Unique: 40, Efficiency: 80}
	c := Compare(a, b)
	if c.Winner != "run2" {
		t.Errorf("winner = %s (%s)", c.Winner, c.Reason)
	}
	if !strings.Contains(c.Reason, "efficiency") {
		t.Errorf("reason = %q", c.Reason)
	}
}

func TestComparisonWrite(t *testing.T) {
	a := Analyze("run1", []domain.RawCaptureEntry{{Part: 1, RawText: "a"}})
	b := Analyze("run2", []domain.RawCaptureEntry{{Part: 1, RawText: "a"}, {Part: 1, RawText: "a"}})
	var buf bytes.Buffer
	Compare(a, b).Write(&buf)

	out := buf.String()
	for _, want := range []string{"unique messages", "winner: run1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
