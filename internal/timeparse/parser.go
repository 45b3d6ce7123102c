// Package timeparse turns natural-language time phrases inside free text
// into absolute timestamps. Recognition is an ordered cascade: recognizers
// are tried in priority order and the first match wins, so extraction is
// single-shot rather than iterative.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type recognizer struct {
	re      *regexp.Regexp
	resolve func(g []string, now time.Time) time.Time
}

const weekdayAlt = `(sunday|monday|tuesday|wednesday|thursday|friday|saturday)`

const monthAlt = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

// clockOpt matches an optional trailing clock time, `at` optional.
const clockOpt = `(?:\s+(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?`

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var periods = map[string]int{
	"morning":   9,
	"afternoon": 14,
	"evening":   18,
	"night":     21,
}

var recognizers = []recognizer{
	// in N minutes/hours/days (and m/h/d)
	{
		re: regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s*(minutes?|mins?|hours?|hrs?|days?|[mhd])\b`),
		resolve: func(g []string, now time.Time) time.Time {
			n, _ := strconv.Atoi(g[1])
			unit := strings.ToLower(g[2])
			switch {
			case strings.HasPrefix(unit, "min"), unit == "m":
				return now.Add(time.Duration(n) * time.Minute)
			case strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"), unit == "h":
				return now.Add(time.Duration(n) * time.Hour)
			default:
				return now.AddDate(0, 0, n)
			}
		},
	},
	// tomorrow [at HH[:MM][am|pm] | morning/afternoon/evening/night]
	{
		re: regexp.MustCompile(`(?i)\btomorrow(?:\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?|\s+(morning|afternoon|evening|night))?\b`),
		resolve: func(g []string, now time.Time) time.Time {
			d := now.AddDate(0, 0, 1)
			if g[1] != "" {
				return setClock(d, g[1], g[2], g[3])
			}
			if g[4] != "" {
				return atHour(d, periods[strings.ToLower(g[4])])
			}
			return atHour(d, 9)
		},
	},
	// today at HH[:MM][am|pm]
	{
		re: regexp.MustCompile(`(?i)\btoday\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`),
		resolve: func(g []string, now time.Time) time.Time {
			return setClock(now, g[1], g[2], g[3])
		},
	},
	// next <weekday> [time]
	{
		re: regexp.MustCompile(`(?i)\bnext\s+` + weekdayAlt + clockOpt + `\b`),
		resolve: func(g []string, now time.Time) time.Time {
			target := weekdays[strings.ToLower(g[1])]
			delta := (int(target) - int(now.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			d := now.AddDate(0, 0, delta)
			if g[2] != "" {
				return setClock(d, g[2], g[3], g[4])
			}
			return atHour(d, 9)
		},
	},
	// bare <weekday> HH[:MM][am|pm]; time is required here
	{
		re: regexp.MustCompile(`(?i)\b` + weekdayAlt + `\s+(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`),
		resolve: func(g []string, now time.Time) time.Time {
			target := weekdays[strings.ToLower(g[1])]
			delta := (int(target) - int(now.Weekday()) + 7) % 7
			d := setClock(now.AddDate(0, 0, delta), g[2], g[3], g[4])
			// Same weekday with an already-passed time means next week.
			if delta == 0 && !d.After(now) {
				d = d.AddDate(0, 0, 7)
			}
			return d
		},
	},
	// [on] <Month> <Day>[st|nd|rd|th] [time]
	{
		re: regexp.MustCompile(`(?i)\b(?:on\s+)?` + monthAlt + `\s+(\d{1,2})(?:st|nd|rd|th)?` + clockOpt + `\b`),
		resolve: func(g []string, now time.Time) time.Time {
			month := months[strings.ToLower(g[1])]
			day, _ := strconv.Atoi(g[2])
			d := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
			if d.Before(now) {
				d = d.AddDate(1, 0, 0)
			}
			if g[3] != "" {
				return setClock(d, g[3], g[4], g[5])
			}
			return atHour(d, 9)
		},
	},
	// on YYYY-MM-DD [HH[:MM]]
	{
		re: regexp.MustCompile(`(?i)\bon\s+(\d{4})-(\d{1,2})-(\d{1,2})(?:\s+(\d{1,2})(?::(\d{2}))?)?\b`),
		resolve: func(g []string, now time.Time) time.Time {
			year, _ := strconv.Atoi(g[1])
			month, _ := strconv.Atoi(g[2])
			day, _ := strconv.Atoi(g[3])
			d := time.Date(year, time.Month(month), day, 9, 0, 0, 0, now.Location())
			if g[4] != "" {
				return setClock(d, g[4], g[5], "")
			}
			return d
		},
	},
	// bare at HH[:MM][am|pm], today; lowest priority fallback
	{
		re: regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`),
		resolve: func(g []string, now time.Time) time.Time {
			return setClock(now, g[1], g[2], g[3])
		},
	},
}

// Extract scans text for the first recognized time phrase relative to now.
// It returns the text with the matched span removed (whitespace collapsed)
// and the resolved timestamp in now's location, or nil when nothing matched.
// Absence of a match is a normal outcome, not an error.
func Extract(text string, now time.Time) (string, *time.Time) {
	for _, rec := range recognizers {
		idx := rec.re.FindStringSubmatchIndex(text)
		if idx == nil {
			continue
		}
		g := submatches(text, idx, rec.re.NumSubexp())
		when := rec.resolve(g, now)
		residual := collapse(text[:idx[0]] + " " + text[idx[1]:])
		return residual, &when
	}
	return collapse(text), nil
}

func submatches(text string, idx []int, n int) []string {
	g := make([]string, n+1)
	for i := 0; i <= n; i++ {
		if idx[2*i] >= 0 {
			g[i] = text[idx[2*i]:idx[2*i+1]]
		}
	}
	return g
}

// setClock applies an HH[:MM] clock reading to d's date. An am/pm suffix
// adjusts a 1-12 hour value; without one the hour is read as 24-hour.
// Seconds are always zeroed.
func setClock(d time.Time, hour, minute, ampm string) time.Time {
	h, _ := strconv.Atoi(hour)
	m := 0
	if minute != "" {
		m, _ = strconv.Atoi(minute)
	}
	switch strings.ToLower(ampm) {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, d.Location())
}

func atHour(d time.Time, hour int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
