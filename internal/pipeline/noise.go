package pipeline

import (
	"strings"

	"chatstitch/internal/domain"
)

// emojiAssetMarker identifies static emoji/reaction sprites, which are never
// real attachments and never counted as noise candidates either.
const emojiAssetMarker = "static.xx.fbcdn.net/images/emoji"

// noiseKey canonicalizes a URL for noise counting: the query string is
// dropped so avatar variants (size/cache-busting params) aggregate into one
// count.
func noiseKey(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// normalizeURL keeps the URL verbatim, stripping the query only for emoji
// assets where the query carries no identity.
func normalizeURL(url string) string {
	u := strings.TrimSpace(url)
	if strings.Contains(u, emojiAssetMarker) {
		return noiseKey(u)
	}
	return u
}

// countableURL reports whether a media URL is a noise-classification
// candidate. blob: URLs, emoji assets, and non-HTTP(S) URLs are handled by
// their own filter rules and excluded from counting entirely.
func countableURL(url string) bool {
	if strings.HasPrefix(url, "blob:") {
		return false
	}
	if strings.Contains(url, emojiAssetMarker) {
		return false
	}
	return strings.HasPrefix(url, "http")
}

// AttachmentCounts is the classifier's global pass: it tallies every
// countable media URL across the whole corpus. It must see the full corpus
// before any entry is cleaned — whether item 1's attachment is chrome can
// depend on an occurrence in item 10,000.
func AttachmentCounts(entries []domain.RawCaptureEntry) map[string]int {
	counts := make(map[string]int)
	for _, entry := range entries {
		for _, url := range entry.MediaURLs {
			if !countableURL(url) {
				continue
			}
			counts[noiseKey(url)]++
		}
	}
	return counts
}

// NoiseSet returns the URLs whose count reached threshold: UI chrome such as
// avatars is re-emitted on almost every capture, real attachments are not.
func NoiseSet(counts map[string]int, threshold int) map[string]struct{} {
	noise := make(map[string]struct{})
	for url, count := range counts {
		if count >= threshold {
			noise[url] = struct{}{}
		}
	}
	return noise
}
