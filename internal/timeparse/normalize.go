package timeparse

import (
	"strings"
	"time"
)

// Zoned layouts are tried first; the naive ones are interpreted in the
// process-local timezone, matching how phrases are parsed in the first place.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04-07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDue parses a stored due string into an absolute instant. It accepts
// both offset-qualified and naive ISO-8601-ish forms; naive values are
// anchored to the local timezone. The bool reports whether parsing succeeded.
func ParseDue(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDue rewrites a due string as UTC with an explicit offset. It fails
// open: empty input stays empty and an unparseable value is returned
// unchanged rather than reported as an error, so legacy values keep flowing
// through unharmed. Downstream consumers must tolerate that.
func NormalizeDue(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	t, ok := ParseDue(s)
	if !ok {
		return raw
	}
	return t.UTC().Format(time.RFC3339)
}
