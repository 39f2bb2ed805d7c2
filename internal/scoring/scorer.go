package scoring

import (
	"math"
	"strings"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// MaxScore is the upper bound of every relevance score.
const MaxScore = 100.0

const (
	// freeTextBonusDivisor and structuredBonusDivisor scale the repeat-hit bonus.
	freeTextBonusDivisor   = 10.0
	structuredBonusDivisor = 5.0
	maxFrequencyBonus      = 0.5

	titleHitPoints    = 30.0
	abstractHitPoints = 10.0
	journalTierPoints = 10.0
)

// FreeText scores text against a free-text query. Zero hits score 0; any hit
// scores 100 plus a frequency bonus, clamped to 100.
func FreeText(text, query string) float64 {
	if strings.TrimSpace(query) == "" {
		return 0
	}
	n := CountOccurrences(text, query)
	if n == 0 {
		return 0
	}
	return clamp(100 * (1 + math.Min(float64(n)/freeTextBonusDivisor, maxFrequencyBonus)))
}

// structuredFields returns the criteria that take part in structured scoring.
// Patient count is excluded.
func structuredFields(c domain.SearchCriteria) []string {
	fields := []string{c.Medicine, c.Condition, c.WorkingMechanism, c.Population, c.TrialType}
	out := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

// Structured averages per-criterion match scores over the non-empty criteria.
// A criterion with at least one hit contributes 1 plus a bonus of up to 0.5.
func Structured(text string, c domain.SearchCriteria) float64 {
	fields := structuredFields(c)
	if len(fields) == 0 || text == "" {
		return 0
	}

	var sum float64
	for _, f := range fields {
		if n := countTerms(text, f); n > 0 {
			sum += 1 + math.Min(float64(n)/structuredBonusDivisor, maxFrequencyBonus)
		}
	}
	return clamp(sum / float64(len(fields)) * 100)
}

// TitleAbstract weighs medicine and condition hits in the title above hits in
// the abstract, without criterion-count normalization.
func TitleAbstract(title, abstract string, c domain.SearchCriteria) float64 {
	var score float64
	for _, terms := range []string{c.Medicine, c.Condition} {
		if strings.TrimSpace(terms) == "" {
			continue
		}
		score += float64(countTerms(title, terms)) * titleHitPoints
		score += float64(countTerms(abstract, terms)) * abstractHitPoints
	}
	return clamp(math.Round(score))
}

// JournalWeight returns the tier bonus for a journal.
func JournalWeight(journal string) float64 {
	return float64(domain.JournalWeightFor(journal)) * journalTierPoints
}

// JournalWeighted adds the journal tier bonus to the title/abstract score.
// Without medicine or condition terms it returns 0.
func JournalWeighted(p domain.Paper, c domain.SearchCriteria) float64 {
	if len(c.MedicineTerms()) == 0 && len(c.ConditionTerms()) == 0 {
		return 0
	}
	return clamp(JournalWeight(p.Journal) + TitleAbstract(p.Title, p.Abstract, c))
}

// Score picks the scorer for a search: free-text mode when the criteria carry
// a query, structured mode otherwise.
func Score(p domain.Paper, c domain.SearchCriteria) float64 {
	text := p.Title + " " + p.Abstract
	if strings.TrimSpace(c.Query) != "" {
		return FreeText(text, c.Query)
	}
	return Structured(text, c)
}

// Relevance is the score attached to a search result. Free-text searches use
// FreeText; structured searches use JournalWeighted when weighted is set and
// Structured otherwise.
func Relevance(p domain.Paper, c domain.SearchCriteria, weighted bool) float64 {
	if weighted && strings.TrimSpace(c.Query) == "" {
		return JournalWeighted(p, c)
	}
	return Score(p, c)
}
