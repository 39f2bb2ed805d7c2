package domain

import "strings"

// ArticleTypes lists the publication types offered as search filters.
var ArticleTypes = []string{
	"Clinical Trial",
	"Randomized Controlled Trial",
	"Observational Study",
	"Meta-Analysis",
	"Review",
	"Case Report",
}

// DefaultJournalWeight is the tier weight of journals not listed in JournalWeights.
const DefaultJournalWeight = 1

// JournalWeights maps journal names to their impact tier (1-5).
var JournalWeights = map[string]int{
	"The New England Journal of Medicine": 5,
	"The Lancet":                          5,
	"Nature":                              5,
	"Science":                             5,
	"JAMA":                                5,

	"Nature Medicine": 4,
	"Journal of the American College of Cardiology": 4,
	"Circulation":            4,
	"JAMA cardiology":        4,
	"European Heart Journal": 4,

	"European journal of heart failure": 3,
	"ESC heart failure":                 3,
	"JACC. Heart failure":               3,

	"Frontiers in cardiovascular medicine":      2,
	"Journal of the American Heart Association": 2,
}

// Journal is a named journal with its tier weight.
type Journal struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// JournalWeightFor returns the tier weight for a journal name, matching
// case-insensitively and falling back to DefaultJournalWeight.
func JournalWeightFor(name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultJournalWeight
	}
	if w, ok := JournalWeights[name]; ok {
		return w
	}
	for journal, w := range JournalWeights {
		if strings.EqualFold(journal, name) {
			return w
		}
	}
	return DefaultJournalWeight
}
