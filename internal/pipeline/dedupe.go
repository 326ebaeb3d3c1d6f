package pipeline

import (
	"strings"

	"chatstitch/internal/domain"
)

// DedupeConsecutive drops a block identical to the immediately preceding
// kept block: same sender, same content, same attachment set regardless of
// order. Trivial re-emission only happens within one capture session, so
// the collapse is scoped to the source batch — an identical adjacent block
// from a different batch is a legitimate repeat and survives.
func DedupeConsecutive(messages []domain.Message) []domain.Message {
	if len(messages) == 0 {
		return nil
	}
	out := make([]domain.Message, 0, len(messages))
	out = append(out, messages[0])
	for _, msg := range messages[1:] {
		last := out[len(out)-1]
		if msg.SourceBatch == last.SourceBatch && msg.SameAs(last) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// artifactKey identifies a message for capture-artifact deduplication.
type artifactKey struct {
	sender  string
	content string
}

// DedupeArtifacts removes re-scroll capture artifacts while preserving
// intentionally repeated messages. Equality is scoped to the source batch: a
// (sender, normalized content) key repeating within one batch is a scroll
// overlap — its attachments are merged into the first occurrence and the
// duplicate dropped — while the same key in a different batch is a phrase
// the sender legitimately repeated across capture sessions, and is kept.
func DedupeArtifacts(messages []domain.Message, partnerName string) []domain.Message {
	if len(messages) == 0 {
		return nil
	}

	// Capacity len(messages) up front: kept pointers index into out and
	// must survive every append.
	out := make([]domain.Message, 0, len(messages))
	batchSeen := make(map[string]map[artifactKey]*domain.Message)

	for _, msg := range messages {
		key := artifactKey{
			sender:  msg.Sender,
			content: normalizeContent(msg.Content, partnerName),
		}

		byKey := batchSeen[msg.SourceBatch]
		if byKey == nil {
			byKey = make(map[artifactKey]*domain.Message)
			batchSeen[msg.SourceBatch] = byKey
		}

		if kept, ok := byKey[key]; ok {
			kept.Attachments = unionAttachments(kept.Attachments, msg.Attachments)
			continue
		}

		out = append(out, msg)
		byKey[key] = &out[len(out)-1]
	}
	return out
}

// normalizeContent collapses whitespace and strips the partner's display
// name, which the capture layer sometimes duplicates into message text.
// Known false-positive risk: two genuinely different messages that differ
// only by that name substring normalize to the same key.
func normalizeContent(text, partnerName string) string {
	if partnerName != "" {
		text = strings.ReplaceAll(text, partnerName, "")
	}
	return strings.Join(strings.Fields(text), " ")
}

// StripProvenance clears the batch/part/index bookkeeping once the
// deduplicator no longer needs it; nothing downstream may depend on it.
func StripProvenance(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	for i, msg := range messages {
		msg.SourceBatch = ""
		msg.SourcePart = 0
		msg.SourceIndex = 0
		out[i] = msg
	}
	return out
}
