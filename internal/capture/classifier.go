// Package capture decides whether a free-form submission is an actionable
// task or a durable memory.
package capture

import (
	"regexp"
	"strings"
	"time"

	"github.com/sandeepkv93/memoria/internal/model"
	"github.com/sandeepkv93/memoria/internal/timeparse"
)

var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^remind\s+me\s+(to|that)\s*`),
	regexp.MustCompile(`(?i)^remember\s+(that)?\s*`),
	regexp.MustCompile(`(?i)^note\s*:\s*`),
}

// Cue detection runs against the original raw text: cue words may live
// inside the span the parser later consumes.
var taskCues = []string{"remind me", "tomorrow", "today", "next ", " at ", " in "}

// Classify routes raw text to a task or memory. Imperative prefixes are
// stripped once from the start, the time-phrase parser runs on the stripped
// text, and anything with an extracted timestamp or a lexical task cue in the
// raw text becomes a task. There are no error states.
func Classify(raw string, now time.Time) model.CaptureResult {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	isCued := false
	for _, cue := range taskCues {
		if strings.Contains(lower, cue) {
			isCued = true
			break
		}
	}

	text = stripPrefixes(text)
	cleaned, due := timeparse.Extract(text, now)

	kind := model.CaptureMemory
	if isCued || due != nil {
		kind = model.CaptureTask
	}
	return model.CaptureResult{Kind: kind, Text: cleaned, Due: due}
}

func stripPrefixes(s string) string {
	for _, re := range prefixPatterns {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}
