package pipeline

import (
	"log/slog"
	"regexp"
	"strings"

	"chatstitch/internal/domain"
	"chatstitch/internal/rules"
)

// timestampRE matches the display timestamp labels the chat UI interleaves
// with content: "18 Dec 2025, 16:19", "18 December at 14:25",
// "Today at 19:30", "Mon 12:00 PM".
var timestampRE = regexp.MustCompile(
	`(?i)^(?:(?:\d{1,2}\s+[A-Za-z]+)|(?:Today|Yesterday|[A-Za-z]{3,}))` +
		`(?:\s+\d{4})?,?\s+(?:at\s+)?\d{1,2}:\d{2}(?:\s?[AP]M)?$`,
)

// timeOnlyRE matches a standalone clock time or media duration ("3:42"),
// which is metadata, never content.
var timeOnlyRE = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// enterToken is a literal placeholder the capture mechanism emits in place
// of newlines inside a message blob.
const enterToken = "Enter"

// Cleaner classifies each line of a raw entry as timestamp label, sender
// label, noise, or content, and filters attachments through the noise set.
// It carries one piece of state across the sequence: the running timestamp
// label, threaded explicitly through CleanEntry.
type Cleaner struct {
	rules  rules.Set
	noise  map[string]struct{}
	logger *slog.Logger
}

func NewCleaner(rs rules.Set, noise map[string]struct{}, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{rules: rs, noise: noise, logger: logger}
}

// Clean folds CleanEntry over the whole sequence, threading the running
// timestamp label from entry to entry.
func (c *Cleaner) Clean(entries []domain.RawCaptureEntry) []domain.Message {
	messages := make([]domain.Message, 0, len(entries))
	currentTS := ""
	for _, entry := range entries {
		var msg *domain.Message
		currentTS, msg = c.CleanEntry(entry, currentTS)
		if msg != nil {
			messages = append(messages, *msg)
		}
	}
	return messages
}

// CleanEntry is one fold step: given the running timestamp label (empty when
// none has been seen yet) it returns the updated label and at most one
// cleaned message. An entry left with no content lines and no attachments
// yields nil — but its timestamp update still carries forward.
func (c *Cleaner) CleanEntry(entry domain.RawCaptureEntry, currentTS string) (string, *domain.Message) {
	newTS := currentTS
	var lines []string

	raw := strings.ReplaceAll(entry.RawText, enterToken, "\n")
	for _, rawLine := range strings.Split(raw, "\n") {
		line := c.stripLeadingLabel(strings.TrimSpace(rawLine))
		if line == "" {
			continue
		}
		if timestampRE.MatchString(line) {
			newTS = line
			continue
		}
		if timeOnlyRE.MatchString(line) {
			continue
		}
		if c.isNoise(line) {
			continue
		}
		// A line that fails every noise rule is content — ambiguous lines
		// are kept rather than silently dropped.
		lines = append(lines, line)
	}

	attachments := c.FilterAttachments(entry.MediaURLs)

	if len(lines) == 0 && len(attachments) == 0 {
		return newTS, nil
	}

	sender := entry.Sender
	if sender == "" {
		sender = "Unknown"
	}
	if sender == "Partner" {
		sender = c.rules.PartnerName
	}

	msg := &domain.Message{
		Timestamp:   newTS,
		Sender:      sender,
		Content:     strings.Join(lines, "\n"),
		Type:        domain.TypeText,
		Attachments: attachments,
		SourceBatch: entry.Batch,
		SourcePart:  entry.Part,
		SourceIndex: entry.Index,
	}
	if msg.Timestamp == "" {
		msg.Timestamp = domain.UnknownTime
	}
	if len(lines) == 0 {
		msg.Type = domain.TypeMedia
	}
	return newTS, msg
}

// stripLeadingLabel removes a duplicated sender label ("You sent", "You",
// the partner's name) glued onto the front of a content line.
func (c *Cleaner) stripLeadingLabel(line string) string {
	for _, label := range c.rules.LeadingLabels {
		if strings.HasPrefix(line, label) {
			return strings.TrimSpace(line[len(label):])
		}
	}
	return line
}

// isNoise applies the vocabulary in priority order: exact match, then
// case-insensitive prefixes, then case-insensitive substring lists.
func (c *Cleaner) isNoise(line string) bool {
	for _, exact := range c.rules.IgnoreExact {
		if line == exact {
			return true
		}
	}
	lower := strings.ToLower(line)
	for _, prefix := range c.rules.IgnorePrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	for _, token := range c.rules.IgnoreContains {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	for _, token := range c.rules.MetaNoiseContains {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// FilterAttachments drops blob:, emoji-asset, and non-HTTP(S) URLs, then
// anything in the noise set, deduplicating within the entry while keeping
// first-seen order.
func (c *Cleaner) FilterAttachments(urls []string) []string {
	var attachments []string
	seen := make(map[string]struct{})
	for _, url := range urls {
		if strings.HasPrefix(url, "blob:") {
			continue
		}
		if strings.Contains(url, emojiAssetMarker) {
			continue
		}
		if !strings.HasPrefix(url, "http") {
			continue
		}
		if _, ok := c.noise[noiseKey(url)]; ok {
			continue
		}
		canon := normalizeURL(url)
		if _, ok := seen[canon]; ok {
			continue
		}
		seen[canon] = struct{}{}
		attachments = append(attachments, canon)
	}
	return attachments
}
