package report

import (
	"testing"
	"time"

	"chatstitch/internal/domain"
)

var testNow = time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

func TestParseLabel_AbsoluteForms(t *testing.T) {
	cases := map[string]time.Time{
		"18 December 2025, 21:45": time.Date(2025, 12, 18, 21, 45, 0, 0, time.UTC),
		"18 Dec 2025, 21:45":      time.Date(2025, 12, 18, 21, 45, 0, 0, time.UTC),
		"18/12/2025, 21:45":       time.Date(2025, 12, 18, 21, 45, 0, 0, time.UTC),
		"18 Dec 2025, 9:45 PM":    time.Date(2025, 12, 18, 21, 45, 0, 0, time.UTC),
	}
	for label, want := range cases {
		got, ok := ParseLabel(label, testNow)
		if !ok {
			t.Errorf("ParseLabel(%q) failed", label)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseLabel(%q) = %v, want %v", label, got, want)
		}
	}
}

func TestParseLabel_RelativeForms(t *testing.T) {
	got, ok := ParseLabel("Today at 19:30", testNow)
	if !ok {
		t.Fatal("Today label should parse")
	}
	want := time.Date(2025, 12, 20, 19, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, ok = ParseLabel("Yesterday at 7:05 AM", testNow)
	if !ok {
		t.Fatal("Yesterday label should parse")
	}
	want = time.Date(2025, 12, 19, 7, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseLabel_Unparsable(t *testing.T) {
	for _, label := range []string{"", domain.UnknownTime, "Mon 12:00 PM", "hello there"} {
		if _, ok := ParseLabel(label, testNow); ok {
			t.Errorf("expected ParseLabel(%q) to fail", label)
		}
	}
}

func TestCheckOrder(t *testing.T) {
	msgs := []domain.Message{
		{Timestamp: "18 Dec 2025, 10:00", Content: "a"},
		{Timestamp: domain.UnknownTime, Content: "b"}, // skipped, not out of order
		{Timestamp: "18 Dec 2025, 11:00", Content: "c"},
		{Timestamp: "18 Dec 2025, 09:00", Content: "d"}, // backwards
	}
	result := CheckOrder(msgs, testNow)
	if result.Total != 4 || result.Parsable != 3 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(result.OutOfOrder) != 1 {
		t.Fatalf("expected 1 out-of-order entry, got %d", len(result.OutOfOrder))
	}
	if result.OutOfOrder[0].Index != 3 {
		t.Errorf("expected index 3, got %d", result.OutOfOrder[0].Index)
	}
	if result.OutOfOrder[0].Previous != "18 Dec 2025, 11:00" {
		t.Errorf("unexpected previous label: %q", result.OutOfOrder[0].Previous)
	}
}
