// Package expertise scores declared-field overlap against reviewer tags.
package expertise

import "strings"

// Match returns the fraction of tags whose trimmed, lower-cased text is a
// substring of the lower-cased declared field. No tags yields 0; blank tags
// count toward the total but never match.
func Match(declared string, tags []string) float64 {
	if len(tags) == 0 {
		return 0
	}

	field := strings.ToLower(declared)
	hits := 0
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t != "" && strings.Contains(field, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(tags))
}
