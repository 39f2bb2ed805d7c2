package papersources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "dapagliflozin in heart failure", NormalizeTitle("  Dapagliflozin in Heart-Failure. "))
	assert.Equal(t, "", NormalizeTitle("..."))
}

func TestSameTitle(t *testing.T) {
	assert.True(t, SameTitle("Dapagliflozin in Heart Failure.", "dapagliflozin in heart failure"))
	assert.True(t, SameTitle(
		"Dapagliflozin in patients with heart failure and reduced ejection fraction",
		"Dapagliflozin in Patients with Heart Failure and Reduced Ejection Fraction: trial",
	))
	assert.False(t, SameTitle("Metformin in diabetes", "Insulin in diabetes"))
	assert.False(t, SameTitle("", "x"))
}

func TestAuthorOverlap(t *testing.T) {
	t.Run("order independent name formats", func(t *testing.T) {
		assert.Equal(t, 1.0, AuthorOverlap([]string{"McMurray John"}, []string{"John McMurray"}))
	})

	t.Run("surname only match", func(t *testing.T) {
		assert.Equal(t, 0.7, AuthorOverlap([]string{"Solomon Scott D"}, []string{"S. Solomon"}))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := []string{"McMurray John", "Solomon Scott", "Doe Jane"}
		b := []string{"John McMurray", "Scott Solomon"}
		assert.InDelta(t, AuthorOverlap(a, b), AuthorOverlap(b, a), 1e-9)
		assert.InDelta(t, 2.0/3.0, AuthorOverlap(a, b), 1e-9)
	})

	t.Run("disjoint and empty", func(t *testing.T) {
		assert.Equal(t, 0.0, AuthorOverlap([]string{"Smith A"}, []string{"Jones B"}))
		assert.Equal(t, 0.0, AuthorOverlap(nil, []string{"Jones B"}))
	})
}

func TestMatchesCandidate(t *testing.T) {
	q := domain.CitationQuery{Title: "Metformin in diabetes", Authors: []string{"Smith John"}}

	assert.True(t, MatchesCandidate(q, "Metformin in Diabetes.", []string{"John Smith"}))
	assert.True(t, MatchesCandidate(q, "Metformin in Diabetes.", nil))
	assert.False(t, MatchesCandidate(q, "Metformin in Diabetes.", []string{"Jane Doe"}))
	assert.False(t, MatchesCandidate(q, "Insulin pumps", []string{"John Smith"}))
	assert.True(t, MatchesCandidate(domain.CitationQuery{DOI: "10.1/x"}, "anything", nil))
}
