package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

func TestCountOccurrences(t *testing.T) {
	tests := []struct {
		name string
		text string
		term string
		want int
	}{
		{name: "case insensitive", text: "Metformin and METFORMIN", term: "metformin", want: 2},
		{name: "whole term only", text: "metformins are not metformin", term: "metformin", want: 1},
		{name: "multi word term", text: "Heart failure; heart failure patients", term: "heart failure", want: 2},
		{name: "punctuation boundaries", text: "(COVID-19) and covid-19.", term: "COVID-19", want: 2},
		{name: "empty term", text: "anything", term: "  ", want: 0},
		{name: "empty text", text: "", term: "x", want: 0},
		{name: "regex characters are literal", text: "a+b a+b", term: "a+b", want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountOccurrences(tt.text, tt.term))
		})
	}
}

func TestFreeText(t *testing.T) {
	assert.Equal(t, 0.0, FreeText("metformin trial", ""))
	assert.Equal(t, 0.0, FreeText("insulin trial", "metformin"))
	assert.Equal(t, 100.0, FreeText("metformin trial", "metformin"))
	assert.Equal(t, 100.0, FreeText("metformin metformin metformin metformin metformin metformin", "metformin"))
}

func TestStructured(t *testing.T) {
	t.Run("empty criteria score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Structured("metformin diabetes", domain.SearchCriteria{}))
	})

	t.Run("patient count alone does not count", func(t *testing.T) {
		n := 100
		assert.Equal(t, 0.0, Structured("100 patients", domain.SearchCriteria{PatientCountMin: &n}))
	})

	t.Run("averaged over criteria", func(t *testing.T) {
		c := domain.SearchCriteria{Medicine: "metformin", Condition: "asthma"}
		assert.InDelta(t, 60.0, Structured("metformin study", c), 1e-9)
	})

	t.Run("bounded at 100", func(t *testing.T) {
		c := domain.SearchCriteria{Medicine: "metformin", Condition: "diabetes"}
		assert.Equal(t, 100.0, Structured("metformin diabetes metformin diabetes", c))
	})

	t.Run("comma separated terms", func(t *testing.T) {
		c := domain.SearchCriteria{Medicine: "metformin, insulin"}
		assert.InDelta(t, 100.0, Structured("insulin", c), 1e-9)
	})
}

func TestTitleAbstract(t *testing.T) {
	c := domain.SearchCriteria{Medicine: "metformin", Condition: "diabetes"}

	assert.Equal(t, 70.0, TitleAbstract("Metformin in diabetes", "metformin was given", c))
	assert.Equal(t, 100.0, TitleAbstract("metformin metformin diabetes diabetes", "", c))
	assert.Equal(t, 0.0, TitleAbstract("Metformin", "metformin", domain.SearchCriteria{}))
}

func TestJournalWeighted(t *testing.T) {
	c := domain.SearchCriteria{Medicine: "metformin"}

	t.Run("tier bonus", func(t *testing.T) {
		p := domain.Paper{Title: "Metformin", Journal: "Circulation"}
		assert.Equal(t, 70.0, JournalWeighted(p, c))
	})

	t.Run("default tier without matches", func(t *testing.T) {
		p := domain.Paper{Title: "Insulin", Journal: "Some Journal"}
		assert.Equal(t, 10.0, JournalWeighted(p, c))
	})

	t.Run("clamped", func(t *testing.T) {
		p := domain.Paper{Title: "Metformin metformin", Abstract: "metformin", Journal: "The Lancet"}
		assert.Equal(t, 100.0, JournalWeighted(p, c))
	})

	t.Run("no terms", func(t *testing.T) {
		p := domain.Paper{Title: "Metformin", Journal: "The Lancet"}
		assert.Equal(t, 0.0, JournalWeighted(p, domain.SearchCriteria{}))
	})
}

func TestScore_SelectsMode(t *testing.T) {
	p := domain.Paper{Title: "Metformin", Abstract: "diabetes"}

	assert.Equal(t, 100.0, Score(p, domain.SearchCriteria{Medicine: "insulin", Query: "metformin"}))
	assert.Equal(t, 0.0, Score(p, domain.SearchCriteria{Medicine: "insulin"}))
}

func TestRelevance(t *testing.T) {
	c := domain.SearchCriteria{Medicine: "metformin", Condition: "asthma"}
	p := domain.Paper{Title: "Metformin", Abstract: "outcomes", Journal: "Some Journal"}

	assert.InDelta(t, 60.0, Relevance(p, c, false), 1e-9)
	// Journal-weighted mode: tier bonus 10 plus one title hit at 30 points.
	assert.Equal(t, JournalWeighted(p, c), Relevance(p, c, true))
	assert.Equal(t, 40.0, Relevance(p, c, true))

	miss := domain.Paper{Title: "Insulin", Journal: "The Lancet"}
	assert.Equal(t, 0.0, Relevance(miss, c, false))
	assert.Equal(t, 50.0, Relevance(miss, c, true))

	freeText := domain.SearchCriteria{Medicine: "metformin", Query: "metformin"}
	assert.Equal(t, 100.0, Relevance(p, freeText, true))
}

func TestTitleAbstract_WholePoints(t *testing.T) {
	c := domain.SearchCriteria{Medicine: "metformin, insulin", Condition: "type 2 diabetes"}
	for _, p := range []domain.Paper{
		{Title: "Metformin", Abstract: "insulin and type 2 diabetes"},
		{Title: "Insulin in type 2 diabetes", Abstract: ""},
		{Title: "", Abstract: "metformin metformin"},
	} {
		score := TitleAbstract(p.Title, p.Abstract, c)
		assert.Equal(t, math.Round(score), score)
		assert.Equal(t, math.Round(JournalWeighted(p, c)), JournalWeighted(p, c))
	}
}

func TestComposite(t *testing.T) {
	t.Run("bare paper", func(t *testing.T) {
		p := domain.Paper{Title: "A study", Journal: "Unknown", Year: 2024}
		f := Composite(p, nil, 2024)

		assert.Equal(t, 0.0, f.Trial)
		assert.InDelta(t, 0.2, f.Journal, 1e-9)
		assert.Equal(t, 0.5, f.Keyword)
		assert.Equal(t, 1.0, f.Recency)
		assert.Equal(t, 28.0, f.Total())
	})

	t.Run("strong paper saturates", func(t *testing.T) {
		patients := 5000
		citations := 500
		p := domain.Paper{
			Title:        "ORION-10 phase 3 pivotal trial of inclisiran",
			Abstract:     "inclisiran significantly improved outcomes (p < 0.05)",
			Journal:      "The New England Journal of Medicine",
			Year:         2024,
			Citations:    &citations,
			PatientCount: &patients,
		}
		f := Composite(p, []string{"inclisiran"}, 2024)

		assert.Equal(t, 1.0, f.Trial)
		assert.Equal(t, 1.0, f.Journal)
		assert.Equal(t, 1.0, f.Keyword)
		assert.Equal(t, 1.0, f.StudySize)
		assert.Equal(t, 1.0, f.Citation)
		assert.Equal(t, 100.0, f.Total())
	})

	t.Run("old papers lose recency", func(t *testing.T) {
		assert.Equal(t, 0.0, recencyFactor(2000, 2024))
		assert.InDelta(t, 0.5, recencyFactor(2019, 2024), 1e-9)
	})

	t.Run("log scales", func(t *testing.T) {
		assert.InDelta(t, 2.0/3.0, studySizeFactor(100), 1e-9)
		assert.InDelta(t, 0.5, citationFactor(9), 1e-9)
		assert.Equal(t, 0.0, citationFactor(0))
	})
}

func TestApplyComposite(t *testing.T) {
	papers := []domain.Paper{
		{ID: "1", Title: "A study", Journal: "Unknown", Year: 2024},
		{ID: "2", Title: "Metformin phase 3", Journal: "The Lancet", Year: 2024},
	}
	ApplyComposite(papers, []string{"metformin"}, 2024)

	for _, p := range papers {
		require.NotNil(t, p.CompositeScore)
		assert.Equal(t, Composite(p, []string{"metformin"}, 2024).Total(), p.Composite())
	}
	assert.Greater(t, papers[1].Composite(), papers[0].Composite())
}
