// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// UniqueFields splits every value on whitespace and returns the distinct
// fields in first-seen order. Case is preserved.
//
//	UniqueFields("  foo bar", "foo", "", "baz ")
//	// Returns: []string{"foo", "bar", "baz"}
func UniqueFields(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		for _, f := range strings.Fields(v) {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			result = append(result, f)
		}
	}
	return result
}
