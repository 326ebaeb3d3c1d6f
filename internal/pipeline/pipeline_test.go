package pipeline

import (
	"strings"
	"testing"

	"chatstitch/internal/domain"
	"chatstitch/internal/rules"
)

func testPipeline() *Pipeline {
	return New(Config{Rules: rules.Defaults("Alice"), Logger: testLogger()})
}

// The reference scenario: batch A captures a timestamp label and the same
// "hello" twice (scroll overlap); batch B captures "hello" once more (a
// genuine repeat). One survivor per batch, in batch order.
func TestRun_EndToEndScenario(t *testing.T) {
	entries := []domain.RawCaptureEntry{
		{Sender: "Partner", RawText: "18 Dec 2025, 16:19", Batch: "batchA", Part: 1, Index: 0},
		{Sender: "Partner", RawText: "hello", Batch: "batchA", Part: 1, Index: 1},
		{Sender: "Partner", RawText: "hello", Batch: "batchA", Part: 2, Index: 0},
		{Sender: "Partner", RawText: "hello", Batch: "batchB", Part: 1, Index: 0},
	}

	out, stats := testPipeline().Run(entries)

	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(out), out)
	}
	for i, msg := range out {
		if msg.Sender != "Alice" {
			t.Errorf("message %d: expected partner display name, got %q", i, msg.Sender)
		}
		if msg.Content != "hello" {
			t.Errorf("message %d: expected content hello, got %q", i, msg.Content)
		}
	}
	if out[0].Timestamp != "18 Dec 2025, 16:19" {
		t.Errorf("expected batch A's running timestamp, got %q", out[0].Timestamp)
	}
	if stats.Raw != 4 || stats.Final != 2 {
		t.Errorf("unexpected stage counts: %+v", stats)
	}
}

func TestRun_OutputInvariants(t *testing.T) {
	avatar := "https://cdn.example.com/avatar.png"
	var entries []domain.RawCaptureEntry
	// The avatar URL rides along on 30 entries — chrome, not content.
	for i := 0; i < 30; i++ {
		entries = append(entries, domain.RawCaptureEntry{
			Sender:    "Partner",
			RawText:   "message number " + strings.Repeat("x", i%5),
			MediaURLs: []string{avatar},
			Batch:     "batch1",
			Part:      1,
			Index:     i,
		})
	}
	entries = append(entries,
		domain.RawCaptureEntry{Sender: "You", RawText: "Seen", Batch: "batch1", Part: 2, Index: 0},
		domain.RawCaptureEntry{
			Sender:    "You",
			RawText:   "here is the photo",
			MediaURLs: []string{"https://example.com/photo.jpg", avatar},
			Batch:     "batch1", Part: 2, Index: 1,
		},
	)

	out, _ := testPipeline().Run(entries)

	for i, msg := range out {
		if msg.Content == "" && len(msg.Attachments) == 0 {
			t.Errorf("message %d violates the non-empty invariant: %+v", i, msg)
		}
		for _, att := range msg.Attachments {
			if att == avatar {
				t.Errorf("noise URL leaked into output attachments: %+v", msg)
			}
		}
		if i > 0 && msg.SameAs(out[i-1]) {
			t.Errorf("adjacent duplicates at %d: %+v", i, msg)
		}
		if msg.SourceBatch != "" {
			t.Errorf("provenance leaked into output: %+v", msg)
		}
	}

	found := false
	for _, msg := range out {
		for _, att := range msg.Attachments {
			if att == "https://example.com/photo.jpg" {
				found = true
			}
		}
	}
	if !found {
		t.Error("the real attachment must survive noise filtering")
	}
}

func TestRun_EmptyCorpus(t *testing.T) {
	out, stats := testPipeline().Run(nil)
	if len(out) != 0 {
		t.Errorf("expected empty output, got %+v", out)
	}
	if stats.Raw != 0 || stats.Final != 0 {
		t.Errorf("unexpected stats for empty corpus: %+v", stats)
	}
}
