package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thornpad/thornpad/pkg/vault"
)

// MatchPattern matches value against pattern. Patterns containing glob
// characters (*?[) use filepath.Match semantics; anything else is an exact
// comparison.
func MatchPattern(pattern, value string) (bool, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == value, nil
	}
	return filepath.Match(pattern, value)
}

// FilterHeaders narrows a listing by record type and tag. Empty patterns
// match everything; a tag pattern matches when any of the record's tags
// matches.
func FilterHeaders(headers []vault.RecordHeader, typePattern, tagPattern string) ([]vault.RecordHeader, error) {
	var out []vault.RecordHeader
	for _, h := range headers {
		if typePattern != "" {
			ok, err := MatchPattern(typePattern, h.Type)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if tagPattern != "" {
			ok, err := anyTagMatches(tagPattern, h.Tags)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, h)
	}
	return out, nil
}

func anyTagMatches(pattern string, tags []string) (bool, error) {
	for _, tag := range tags {
		ok, err := MatchPattern(pattern, tag)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// SplitTags parses a comma-separated tag list, trimming whitespace and
// dropping empties and duplicates while preserving first-seen order.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	seen := make(map[string]bool)
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
