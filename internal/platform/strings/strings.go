// Package strings holds small string helpers shared by modules
package strings

import "unicode/utf8"

// IfEmpty returns def when in has no elements
func IfEmpty[T any](in, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// Truncate keeps at most n runes of s and marks the cut with an ellipsis
// stderr tails and error details pass through here before they reach a log line
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
