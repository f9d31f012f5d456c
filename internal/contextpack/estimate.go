// Package contextpack assembles budget-bounded markdown context packs from
// project memory.
package contextpack

import "unicode/utf8"

// CharsPerToken is the heuristic behind every budget decision.
const CharsPerToken = 4

// EstimateTokens approximates the token count of text as ceil(chars/4),
// counting characters as code points.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// truncateChars returns the first n characters of text.
func truncateChars(text string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
