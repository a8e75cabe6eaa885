// ABOUTME: Lenient timestamp parsing for anchor dates
// ABOUTME: Accepts ISO-8601 variants and plain dates; falls back to now instead of failing
package cadence

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses s with the accepted layouts. Values without a zone are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// AnchorOrNow parses s, substituting now when it is empty or unparseable.
func AnchorOrNow(s string, now time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return now.UTC()
}
