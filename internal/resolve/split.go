// Package resolve determines whether a raw artist-credit string
// denotes one cohesive catalog entity or a collaboration of several,
// and builds nationality-enriched entity records for each.
package resolve

import (
	"regexp"
	"strings"
)

// Collaboration separators, case-insensitive. Padded slashes are
// handled separately so names with unspaced slashes (AC/DC) survive.
var separatorPattern = regexp.MustCompile(`(?i)\s+feat\.?\s+|\s+ft\.?\s+|\s+&\s+|\s+x\s+|\s+with\s+|\s+vs\.?\s+|\s+presents\s+|\s+features\s+`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims a string and folds internal runs of
// whitespace to single spaces. The same normalization is applied when
// keys are derived from the dataset and when they are queried, so
// cache lookups stay aligned.
func CollapseWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// SplitCollaborations tokenizes a raw artist-credit string into
// candidate individual names. Padded slashes split first (preserving
// unspaced slashes inside names), then the standard collaboration
// markers. Tokens are whitespace-normalized and deduplicated
// case-insensitively, preserving first-seen order and original casing.
func SplitCollaborations(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parts []string
	if strings.Contains(raw, " / ") {
		for _, chunk := range strings.Split(raw, " / ") {
			parts = append(parts, separatorPattern.Split(chunk, -1)...)
		}
	} else {
		parts = separatorPattern.Split(raw, -1)
	}

	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		name := CollapseWhitespace(p)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
