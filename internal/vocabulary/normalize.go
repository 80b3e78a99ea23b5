package vocabulary

import "strings"

// Normalize turns a free-text label into a lookup key: lowercased, periods
// replaced by spaces, surrounding whitespace trimmed.
func Normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(text), ".", " "))
}
