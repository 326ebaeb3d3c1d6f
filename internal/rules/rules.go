// Package rules holds the cleaning vocabulary: the noise phrases, label
// prefixes, and thresholds the entry cleaner classifies against. Built-in
// defaults cover the Messenger web UI; a YAML file can override any field.
package rules

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultNoiseThreshold is the occurrence count at which an attachment URL
// is classified as UI chrome rather than content.
const DefaultNoiseThreshold = 25

// Set is the complete vocabulary for one cleaning run.
type Set struct {
	// PartnerName is the display name substituted for the generic
	// "Partner" role and stripped during dedup normalization.
	PartnerName string `yaml:"partnerName"`

	// IgnoreExact drops a line only when it matches exactly.
	IgnoreExact []string `yaml:"ignoreExact"`
	// IgnorePrefixes drops a line on a case-insensitive prefix match.
	IgnorePrefixes []string `yaml:"ignorePrefixes"`
	// IgnoreContains drops a line on a case-insensitive substring match.
	IgnoreContains []string `yaml:"ignoreContains"`
	// MetaNoiseContains is platform chrome ("Meta AI" banners etc.),
	// matched the same way as IgnoreContains.
	MetaNoiseContains []string `yaml:"metaNoiseContains"`

	// LeadingLabels are duplicated sender labels stripped off the front
	// of a line before classification.
	LeadingLabels []string `yaml:"leadingLabels"`

	NoiseThreshold int `yaml:"noiseThreshold"`
}

// Defaults returns the built-in vocabulary for the given partner display
// name. The name itself is part of the vocabulary: a line holding only the
// partner's name is a sender label, not content.
func Defaults(partnerName string) Set {
	return Set{
		PartnerName: partnerName,
		IgnoreExact: []string{
			"Enter",
			"Seen",
			"Sent",
			"You sent",
			"You",
			"Media",
			"Double tap to like",
			partnerName,
		},
		IgnorePrefixes: []string{
			"You replied to",
			"You reacted to",
			"You unsent",
			"You removed",
			"You changed",
			"Partner replied to",
			partnerName + " replied to",
		},
		IgnoreContains: []string{
			"replied to you",
			"Original message:",
		},
		MetaNoiseContains: []string{
			"Meta AI",
			"Use the Messenger mobile app to see it",
		},
		LeadingLabels: []string{
			"You sent",
			"You",
			partnerName,
		},
		NoiseThreshold: DefaultNoiseThreshold,
	}
}

// Load builds a Set from the defaults for partnerName, overlaid with the
// YAML file at path when one is given. A missing file is not an error; a
// malformed one is.
func Load(path, partnerName string, logger *slog.Logger) (Set, error) {
	set := Defaults(partnerName)
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Debug("rules file does not exist, using defaults", "path", path)
		return set, nil
	}
	if err != nil {
		return set, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var overlay Set
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return set, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	// A partner name in the file rebuilds the name-derived defaults before
	// the explicit list overrides are applied on top.
	if overlay.PartnerName != "" && overlay.PartnerName != partnerName {
		set = Defaults(overlay.PartnerName)
	}
	if len(overlay.IgnoreExact) > 0 {
		set.IgnoreExact = overlay.IgnoreExact
	}
	if len(overlay.IgnorePrefixes) > 0 {
		set.IgnorePrefixes = overlay.IgnorePrefixes
	}
	if len(overlay.IgnoreContains) > 0 {
		set.IgnoreContains = overlay.IgnoreContains
	}
	if len(overlay.MetaNoiseContains) > 0 {
		set.MetaNoiseContains = overlay.MetaNoiseContains
	}
	if len(overlay.LeadingLabels) > 0 {
		set.LeadingLabels = overlay.LeadingLabels
	}
	if overlay.NoiseThreshold > 0 {
		set.NoiseThreshold = overlay.NoiseThreshold
	}

	logger.Info("loaded cleaning rules", "path", path, "partner", set.PartnerName)
	return set, nil
}
