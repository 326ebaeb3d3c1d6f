package domain

// Message types.
const (
	TypeText  = "text"
	TypeMedia = "media"
)

// UnknownTime is the timestamp sentinel used until the cleaner has seen a
// timestamp label for the current stretch of the conversation.
const UnknownTime = "Unknown Time"

// Message is one cleaned unit of the transcript. After grouping, Content may
// be a newline-joined concatenation of several underlying messages and
// Attachments the union of their attachments. Invariant: Content and
// Attachments are never both empty — the cleaner drops such entries.
type Message struct {
	Timestamp   string   `json:"timestamp"`
	Sender      string   `json:"sender"`
	Content     string   `json:"content"`
	Type        string   `json:"type"`
	Attachments []string `json:"attachments,omitempty"`

	// Provenance travels only as far as the deduplicator, which keys its
	// artifact scope on SourceBatch and strips all three before output.
	SourceBatch string `json:"-"`
	SourcePart  int    `json:"-"`
	SourceIndex int    `json:"-"`
}

// SameAs reports whether two messages are exact duplicates: same sender,
// same content, same attachment set regardless of order.
func (m Message) SameAs(other Message) bool {
	if m.Sender != other.Sender || m.Content != other.Content {
		return false
	}
	if len(m.Attachments) != len(other.Attachments) {
		return false
	}
	set := make(map[string]struct{}, len(m.Attachments))
	for _, a := range m.Attachments {
		set[a] = struct{}{}
	}
	for _, a := range other.Attachments {
		if _, ok := set[a]; !ok {
			return false
		}
	}
	return true
}
