package pipeline

import "chatstitch/internal/domain"

// Group merges adjacent same-sender messages into blocks, mirroring how the
// chat UI visually groups consecutive bubbles: content joined with newlines,
// attachments unioned in first-seen order, and an "Unknown Time" placeholder
// upgraded to a concrete label when a later constituent carries one. A
// sender change always starts a new block, and so does a batch change — a
// batch is one capture session, and a block never spans sessions. An exact
// re-emission of the previous message also starts a new block: it is a
// capture artifact for the deduplicator to judge, not a second line of the
// same bubble. Provenance of the earliest constituent is kept for the
// deduplicator.
func Group(messages []domain.Message) []domain.Message {
	if len(messages) == 0 {
		return nil
	}

	grouped := make([]domain.Message, 0, len(messages))
	grouped = append(grouped, messages[0])
	prev := messages[0]
	for _, msg := range messages[1:] {
		last := &grouped[len(grouped)-1]
		if msg.Sender != last.Sender || msg.SourceBatch != last.SourceBatch || msg.SameAs(prev) {
			grouped = append(grouped, msg)
			prev = msg
			continue
		}
		prev = msg

		if msg.Content != "" {
			if last.Content != "" {
				last.Content += "\n" + msg.Content
			} else {
				last.Content = msg.Content
			}
		}
		last.Attachments = unionAttachments(last.Attachments, msg.Attachments)
		if last.Timestamp == domain.UnknownTime && msg.Timestamp != domain.UnknownTime {
			last.Timestamp = msg.Timestamp
		}
	}
	return grouped
}

// unionAttachments appends the elements of b not already in a, preserving
// order. It never mutates a's backing array.
func unionAttachments(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, len(a), len(a)+len(b))
	copy(out, a)
	seen := make(map[string]struct{}, len(a))
	for _, att := range a {
		seen[att] = struct{}{}
	}
	for _, att := range b {
		if _, ok := seen[att]; ok {
			continue
		}
		seen[att] = struct{}{}
		out = append(out, att)
	}
	return out
}
