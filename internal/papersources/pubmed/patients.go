package pubmed

import (
	"regexp"
	"strconv"
)

// patientCountPatterns recognise enrolment statements in abstracts, tried in order.
var patientCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:included|enrolled|recruited|studied)\s+(\d+)\s+(?:patients?|participants?|subjects?)`),
	regexp.MustCompile(`(?i)(?:n\s*=\s*)(\d+)(?:\s*patients?)?`),
	regexp.MustCompile(`(?i)(?:sample size|cohort)\s+of\s+(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s+(?:patients?|participants?|subjects?)\s+(?:were|was)\s+(?:included|enrolled|recruited)`),
	regexp.MustCompile(`(?i)total\s+(?:of\s+)?(\d+)\s+(?:patients?|participants?|subjects?)`),
	regexp.MustCompile(`(?i)population\s+of\s+(\d+)`),
}

// ExtractPatientCount returns the first positive study size stated in text.
func ExtractPatientCount(text string) (int, bool) {
	for _, re := range patientCountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
