package rules

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestDefaults_PartnerNameDerived(t *testing.T) {
	set := Defaults("Alice")

	found := false
	for _, s := range set.IgnoreExact {
		if s == "Alice" {
			found = true
		}
	}
	if !found {
		t.Error("partner name should be in the exact-ignore vocabulary")
	}

	found = false
	for _, p := range set.IgnorePrefixes {
		if p == "Alice replied to" {
			found = true
		}
	}
	if !found {
		t.Error("partner reply prefix should be derived from the partner name")
	}

	if set.NoiseThreshold != DefaultNoiseThreshold {
		t.Errorf("expected threshold %d, got %d", DefaultNoiseThreshold, set.NoiseThreshold)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "Alice", testLogger())
	if err != nil {
		t.Fatalf("missing rules file should not be an error: %v", err)
	}
	if set.PartnerName != "Alice" {
		t.Errorf("expected default partner name, got %q", set.PartnerName)
	}
}

func TestLoad_OverlayOverridesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "partnerName: Bob\nnoiseThreshold: 10\nignoreContains:\n  - \"forwarded a message\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := Load(path, "Alice", testLogger())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.PartnerName != "Bob" {
		t.Errorf("expected overlay partner name Bob, got %q", set.PartnerName)
	}
	if set.NoiseThreshold != 10 {
		t.Errorf("expected overlay threshold 10, got %d", set.NoiseThreshold)
	}
	if len(set.IgnoreContains) != 1 || set.IgnoreContains[0] != "forwarded a message" {
		t.Errorf("expected overlay contains list, got %v", set.IgnoreContains)
	}
	// Name-derived defaults must follow the overlay name.
	found := false
	for _, s := range set.IgnoreExact {
		if s == "Bob" {
			found = true
		}
	}
	if !found {
		t.Error("exact vocabulary should be rebuilt for the overlay partner name")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, "Alice", testLogger()); err == nil {
		t.Fatal("expected error for malformed rules file")
	}
}
