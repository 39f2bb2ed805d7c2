package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// keyVersion is bumped whenever cached paper fields or scoring change shape.
const keyVersion = "v1"

// cacheKeyParams is the canonical form of a search request. Sorting is not
// part of it: the cached window is stored in fetch order and sorted on the
// way out.
type cacheKeyParams struct {
	Version          string   `json:"v"`
	Medicine         []string `json:"medicine,omitempty"`
	Condition        []string `json:"condition,omitempty"`
	WorkingMechanism string   `json:"mechanism,omitempty"`
	Population       string   `json:"population,omitempty"`
	PatientCountMin  *int     `json:"patients,omitempty"`
	TrialType        string   `json:"trial_type,omitempty"`
	Journals         []string `json:"journals,omitempty"`
	Start            string   `json:"start,omitempty"`
	End              string   `json:"end,omitempty"`
	ArticleTypes     []string `json:"article_types,omitempty"`
	Query            string   `json:"query,omitempty"`
	Offset           int      `json:"offset"`
	Limit            int      `json:"limit"`
	Weighted         bool     `json:"weighted,omitempty"`
}

// CacheKey serializes the parameters that determine a result window and
// hashes them. Term order and case do not change the key.
func CacheKey(c domain.SearchCriteria, offset, limit int, weighted bool) string {
	params := cacheKeyParams{
		Version:          keyVersion,
		Medicine:         canonicalTerms(c.MedicineTerms()),
		Condition:        canonicalTerms(c.ConditionTerms()),
		WorkingMechanism: canonical(c.WorkingMechanism),
		Population:       canonical(c.Population),
		PatientCountMin:  c.PatientCountMin,
		TrialType:        canonical(c.TrialType),
		Journals:         canonicalTerms(c.JournalNames()),
		Start:            formatDate(c.DateRange.Start),
		End:              formatDate(c.DateRange.End),
		ArticleTypes:     canonicalTerms(c.ArticleTypes),
		Query:            canonical(c.Query),
		Offset:           offset,
		Limit:            limit,
		Weighted:         weighted,
	}

	// Marshalling a struct of strings and ints cannot fail.
	raw, _ := json.Marshal(params)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func canonicalTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = canonical(t); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
