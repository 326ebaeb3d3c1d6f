package report

import (
	"regexp"
	"strings"
	"time"

	"chatstitch/internal/domain"
)

var (
	relativeLabelRE = regexp.MustCompile(`(?i)^(Today|Yesterday) at (\d{1,2}:\d{2})(?:\s*([AP]M))?`)
	absoluteLabelRE = regexp.MustCompile(`(?i)(\d{1,2} [A-Za-z]+ \d{4}|\d{1,2}/\d{1,2}/\d{4}),?\s+(\d{1,2}:\d{2})(?:\s*([AP]M))?`)
)

// absoluteLayouts are tried in order against "<date> <time>" fragments,
// with an AM/PM variant appended when the label carries one.
var absoluteLayouts = []string{
	"2 January 2006 15:04",
	"2 Jan 2006 15:04",
	"2/1/2006 15:04",
}

var absoluteLayoutsAMPM = []string{
	"2 January 2006 3:04 PM",
	"2 Jan 2006 3:04 PM",
	"2/1/2006 3:04 PM",
}

// ParseLabel converts a display timestamp label into a concrete time where
// possible. Labels are free-form UI text, so this is best-effort: the
// sentinel, bare weekday forms, and anything unrecognized report ok=false.
// Relative forms resolve against now's calendar date.
func ParseLabel(label string, now time.Time) (time.Time, bool) {
	label = strings.TrimSpace(label)
	if label == "" || label == domain.UnknownTime {
		return time.Time{}, false
	}

	if m := relativeLabelRE.FindStringSubmatch(label); m != nil {
		layout := "15:04"
		clock := m[2]
		if m[3] != "" {
			layout = "3:04 PM"
			clock = clock + " " + strings.ToUpper(m[3])
		}
		t, err := time.Parse(layout, clock)
		if err != nil {
			return time.Time{}, false
		}
		day := now
		if strings.EqualFold(m[1], "Yesterday") {
			day = now.AddDate(0, 0, -1)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), true
	}

	if m := absoluteLabelRE.FindStringSubmatch(label); m != nil {
		candidate := m[1] + " " + m[2]
		layouts := absoluteLayouts
		if m[3] != "" {
			candidate = candidate + " " + strings.ToUpper(m[3])
			layouts = absoluteLayoutsAMPM
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, label); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", label); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// OutOfOrder records an output position whose parsed timestamp runs
// backwards relative to the previous parsable one.
type OutOfOrder struct {
	Index     int
	Timestamp string
	Previous  string
}

// ChronologyResult summarizes a chronology check over a cleaned transcript.
type ChronologyResult struct {
	Total      int
	Parsable   int
	OutOfOrder []OutOfOrder
}

// CheckOrder walks a cleaned transcript and flags entries whose timestamp
// labels go backwards. Unparsable labels are skipped, not errors — labels
// are display text, never a reliable sort key.
func CheckOrder(messages []domain.Message, now time.Time) ChronologyResult {
	result := ChronologyResult{Total: len(messages)}

	var prev time.Time
	var prevLabel string
	havePrev := false
	for i, msg := range messages {
		t, ok := ParseLabel(msg.Timestamp, now)
		if !ok {
			continue
		}
		result.Parsable++
		if havePrev && t.Before(prev) {
			result.OutOfOrder = append(result.OutOfOrder, OutOfOrder{
				Index:     i,
				Timestamp: msg.Timestamp,
				Previous:  prevLabel,
			})
		}
		prev = t
		prevLabel = msg.Timestamp
		havePrev = true
	}
	return result
}
