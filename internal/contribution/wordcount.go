package contribution

import "strings"

// CountWords counts whitespace-delimited tokens in content: split on any
// run of whitespace, empty tokens discarded. No Unicode-aware tokenization
// is attempted; story-level word counts sum these exact values, so every
// caller must use this same definition.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
