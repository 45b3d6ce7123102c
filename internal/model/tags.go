package model

import "regexp"

var tagPattern = regexp.MustCompile(`[@#]\w+`)

// ExtractTags collects @mentions and #hashtags from text, preserving first
// occurrence order and dropping duplicates.
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
