package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

func paper(id, title string, year, citations int, score float64) domain.Paper {
	p := domain.Paper{ID: id, Title: title, Year: year}
	if citations >= 0 {
		p.SetCitations(citations)
	}
	p.SetRelevanceScore(score)
	return p
}

func ids(papers []domain.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.ID
	}
	return out
}

func TestNormalizeSort(t *testing.T) {
	opts, err := NormalizeSort(domain.SortOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSort, opts)

	opts, err = NormalizeSort(domain.SortOptions{By: " Title ", Direction: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, domain.SortOptions{By: domain.SortByTitle, Direction: domain.SortAsc}, opts)

	_, err = NormalizeSort(domain.SortOptions{By: "popularity"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = NormalizeSort(domain.SortOptions{By: "date", Direction: "sideways"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSort(t *testing.T) {
	papers := []domain.Paper{
		paper("a", "beta blockers", 2019, 10, 40),
		paper("b", "Aspirin", 2024, -1, 90),
		paper("c", "ACE inhibitors", 2021, 55, 40),
		paper("d", "Statins", 2019, 10, 75),
	}

	tests := []struct {
		name string
		opts domain.SortOptions
		want []string
	}{
		{"default is citations desc, missing as zero", domain.SortOptions{}, []string{"c", "a", "d", "b"}},
		{"citations asc is stable", domain.SortOptions{By: "citations", Direction: "asc"}, []string{"b", "a", "d", "c"}},
		{"date desc", domain.SortOptions{By: "date", Direction: "desc"}, []string{"b", "c", "a", "d"}},
		{"relevance desc", domain.SortOptions{By: "relevance", Direction: "desc"}, []string{"b", "d", "a", "c"}},
		{"title asc ignores case", domain.SortOptions{By: "title", Direction: "asc"}, []string{"c", "b", "a", "d"}},
		{"unknown key falls back", domain.SortOptions{By: "popularity"}, []string{"c", "a", "d", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(papers, tt.opts)))
		})
	}

	t.Run("composite desc, unranked as zero", func(t *testing.T) {
		ranked := append([]domain.Paper(nil), papers...)
		ranked[0].SetCompositeScore(35)
		ranked[3].SetCompositeScore(62)
		assert.Equal(t, []string{"d", "a", "b", "c"}, ids(Sort(ranked, domain.SortOptions{By: "composite", Direction: "desc"})))
	})

	t.Run("input is not modified", func(t *testing.T) {
		_ = Sort(papers, domain.SortOptions{By: "title", Direction: "asc"})
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(papers))
	})
}

func TestPaginate(t *testing.T) {
	papers := []domain.Paper{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}

	assert.Equal(t, []string{"1", "2"}, ids(Paginate(papers, 0, 2)))
	assert.Equal(t, []string{"4", "5"}, ids(Paginate(papers, 3, 10)))
	assert.Equal(t, []string{"2", "3", "4", "5"}, ids(Paginate(papers, 1, 0)))
	assert.Empty(t, Paginate(papers, 5, 2))
	assert.Equal(t, []string{"1"}, ids(Paginate(papers, -3, 1)))
}
