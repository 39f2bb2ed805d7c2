// Package scoring computes heuristic relevance scores for literature records.
//
// Every scorer is pure and deterministic, returns a value in [0, 100], and
// returns 0 when there is nothing to match against.
package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CountOccurrences counts case-insensitive, whole-term occurrences of term in
// text. A match must not be directly preceded or followed by a letter or digit.
// Overlapping matches are not counted.
func CountOccurrences(text, term string) int {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || text == "" {
		return 0
	}
	text = strings.ToLower(text)

	count := 0
	for start := 0; start < len(text); {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			break
		}
		begin := start + idx
		end := begin + len(term)
		if isBoundary(text, begin, end) {
			count++
			start = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[begin:])
		start = begin + size
	}
	return count
}

func isBoundary(text string, begin, end int) bool {
	if begin > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:begin])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// countTerms sums occurrences of each comma-separated term in s.
func countTerms(text, s string) int {
	total := 0
	for _, term := range strings.Split(s, ",") {
		total += CountOccurrences(text, term)
	}
	return total
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}
