// Package strings holds list helpers for configuration values.
package strings

import (
	"strings"
)

// SplitList splits a comma separated value into trimmed, non-empty,
// de-duplicated items in first-seen order.
//
//	SplitList(" broker-1:9092, broker-2:9092,,broker-1:9092")
//	// []string{"broker-1:9092", "broker-2:9092"}
func SplitList(value string) []string {
	return DedupeAndTrim(strings.Split(value, ","))
}

// DedupeAndTrim trims every element and drops empties and repeats.
func DedupeAndTrim(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
