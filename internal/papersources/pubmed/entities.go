package pubmed

import (
	"regexp"
	"strings"
)

var (
	// entityReplacer decodes the five predefined XML entities. &amp; is
	// replaced last by construction of strings.Replacer (single pass), so
	// "&amp;lt;" decodes to "&lt;" rather than "<".
	entityReplacer = strings.NewReplacer(
		"&quot;", `"`,
		"&apos;", "'",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
	)

	tagPattern = regexp.MustCompile(`<[^>]*>`)
)

// DecodeEntities replaces the five standard XML entities. Text without
// entities is returned unchanged.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityReplacer.Replace(s)
}

// stripMarkup removes tags left in raw inner XML.
func stripMarkup(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

// normalizeSpace collapses runs of whitespace and trims the result.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText turns raw inner XML into display text: markup stripped,
// entities decoded, whitespace normalized.
func cleanText(raw string) string {
	return normalizeSpace(DecodeEntities(stripMarkup(raw)))
}
