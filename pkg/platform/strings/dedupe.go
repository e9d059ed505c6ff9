// Package strings provides string list helpers for configuration values.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empties and repeats, keeping
// first-seen order. A nil or empty input is returned unchanged.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
