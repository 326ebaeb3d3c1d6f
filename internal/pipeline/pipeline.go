// Package pipeline reconstructs a canonical transcript from an ordered
// stream of raw capture entries. Stages run strictly forward — noise
// classification, entry cleaning, grouping, deduplication — and every stage
// is a pure function over its input sequence, so each is testable alone.
package pipeline

import (
	"log/slog"

	"chatstitch/internal/domain"
	"chatstitch/internal/rules"
)

// Config configures a pipeline run.
type Config struct {
	Rules  rules.Set
	Logger *slog.Logger
}

// Pipeline composes the reconstruction stages over a sequenced corpus.
type Pipeline struct {
	rules  rules.Set
	logger *slog.Logger
}

func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{rules: cfg.Rules, logger: logger}
}

// Stats counts the corpus at each stage boundary so data loss anywhere in
// the pipeline is observable from the run report.
type Stats struct {
	Raw              int `json:"raw"`
	NoiseURLs        int `json:"noiseUrls"`
	Cleaned          int `json:"cleaned"`
	Grouped          int `json:"grouped"`
	AfterConsecutive int `json:"afterConsecutive"`
	Final            int `json:"final"`
}

// Run executes the full pipeline. The classifier's global pass completes
// before cleaning starts (two passes over the same immutable sequence, not
// a cycle), and provenance is stripped from the final output.
func (p *Pipeline) Run(entries []domain.RawCaptureEntry) ([]domain.Message, Stats) {
	stats := Stats{Raw: len(entries)}

	counts := AttachmentCounts(entries)
	noise := NoiseSet(counts, p.rules.NoiseThreshold)
	stats.NoiseURLs = len(noise)
	p.logger.Info("classified noise attachments", "urls", len(noise), "threshold", p.rules.NoiseThreshold)

	cleaner := NewCleaner(p.rules, noise, p.logger)
	cleaned := cleaner.Clean(entries)
	stats.Cleaned = len(cleaned)
	p.logger.Info("cleaned entries", "raw", stats.Raw, "kept", stats.Cleaned)

	grouped := Group(cleaned)
	stats.Grouped = len(grouped)
	p.logger.Info("grouped message blocks", "blocks", stats.Grouped)

	collapsed := DedupeConsecutive(grouped)
	stats.AfterConsecutive = len(collapsed)

	deduped := DedupeArtifacts(collapsed, p.rules.PartnerName)
	stats.Final = len(deduped)
	p.logger.Info("deduplicated",
		"afterConsecutive", stats.AfterConsecutive,
		"final", stats.Final,
	)

	return StripProvenance(deduped), stats
}
