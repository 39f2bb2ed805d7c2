package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Composite factor weights. They sum to 1.
const (
	trialWeight     = 0.20
	journalWeight   = 0.15
	keywordWeight   = 0.30
	studySizeWeight = 0.15
	citationWeight  = 0.10
	recencyWeight   = 0.10
)

var (
	studyNamePattern = regexp.MustCompile(`[A-Z]{2,}-\d+`)

	registrationMarkers = []string{"registration", "pivotal", "primary analysis", "primary results"}
	significanceMarkers = []string{"p < 0.05", "p < 0.01", "significant difference", "significantly improved"}
)

// Factors are the normalized [0,1] components of a composite score.
type Factors struct {
	Trial     float64 `json:"trial"`
	Journal   float64 `json:"journal"`
	Keyword   float64 `json:"keyword"`
	StudySize float64 `json:"study_size"`
	Citation  float64 `json:"citation"`
	Recency   float64 `json:"recency"`
}

// Total combines the factors into a [0,100] score rounded to an integer.
func (f Factors) Total() float64 {
	total := f.Trial*trialWeight +
		f.Journal*journalWeight +
		f.Keyword*keywordWeight +
		f.StudySize*studySizeWeight +
		f.Citation*citationWeight +
		f.Recency*recencyWeight
	return math.Round(clamp(total * 100))
}

// Composite ranks an enriched paper on trial design, journal tier, keyword
// fit, study size, citations and recency. currentYear anchors the recency factor.
func Composite(p domain.Paper, keywords []string, currentYear int) Factors {
	patients := 0
	if p.PatientCount != nil {
		patients = *p.PatientCount
	}
	return Factors{
		Trial:     trialFactor(p.Title, p.Abstract),
		Journal:   float64(domain.JournalWeightFor(p.Journal)) / float64(maxJournalWeight()),
		Keyword:   keywordFactor(p.Title, p.Abstract, keywords),
		StudySize: studySizeFactor(patients),
		Citation:  citationFactor(p.CitationCount()),
		Recency:   recencyFactor(p.Year, currentYear),
	}
}

// ApplyComposite ranks every paper with Composite and records the total.
func ApplyComposite(papers []domain.Paper, keywords []string, currentYear int) {
	for i := range papers {
		papers[i].SetCompositeScore(Composite(papers[i], keywords, currentYear).Total())
	}
}

func maxJournalWeight() int {
	highest := domain.DefaultJournalWeight
	for _, w := range domain.JournalWeights {
		highest = max(highest, w)
	}
	return highest
}

func trialPhase(text string) int {
	switch {
	case strings.Contains(text, "phase 3"), strings.Contains(text, "phase iii"):
		return 3
	case strings.Contains(text, "phase 2"), strings.Contains(text, "phase ii"):
		return 2
	case strings.Contains(text, "phase 1"), strings.Contains(text, "phase i"):
		return 1
	default:
		return 0
	}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func trialFactor(title, abstract string) float64 {
	text := strings.ToLower(title + " " + abstract)
	score := float64(trialPhase(text)) * 0.2
	if containsAny(text, registrationMarkers) {
		score += 0.3
	}
	if studyNamePattern.MatchString(title) {
		score += 0.1
	}
	if containsAny(strings.ToLower(abstract), significanceMarkers) {
		score += 0.1
	}
	return math.Min(score, 1)
}

// keywordFactor counts title hits double. With no keywords it is neutral (0.5).
func keywordFactor(title, abstract string, keywords []string) float64 {
	var total, matched float64
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		total++
		matched += float64(CountOccurrences(title, kw)) * 2
		matched += float64(CountOccurrences(abstract, kw))
	}
	if total == 0 {
		return 0.5
	}
	return math.Min(matched/(total*3), 1)
}

// studySizeFactor is log-scaled: 1000 patients or more saturates.
func studySizeFactor(patients int) float64 {
	if patients <= 0 {
		return 0
	}
	return math.Min(math.Log10(float64(patients))/3, 1)
}

// citationFactor is log-scaled: 99 citations or more saturates.
func citationFactor(citations int) float64 {
	if citations <= 0 {
		return 0
	}
	return math.Min(math.Log10(float64(citations)+1)/2, 1)
}

// recencyFactor decays linearly to 0 over ten years.
func recencyFactor(year, currentYear int) float64 {
	if year <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, 1-float64(currentYear-year)/10))
}
