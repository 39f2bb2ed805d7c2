package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

func TestCacheKey(t *testing.T) {
	base := domain.SearchCriteria{Medicine: "metformin, insulin", Condition: "diabetes"}
	key := CacheKey(base, 0, 25, true)

	assert.Len(t, key, 64)
	assert.Equal(t, key, CacheKey(base, 0, 25, true), "deterministic")

	reordered := domain.SearchCriteria{Medicine: "Insulin,metformin", Condition: " Diabetes "}
	assert.Equal(t, key, CacheKey(reordered, 0, 25, true), "term order and case do not matter")

	assert.NotEqual(t, key, CacheKey(base, 25, 25, true), "offset is part of the key")
	assert.NotEqual(t, key, CacheKey(base, 0, 50, true), "limit is part of the key")
	assert.NotEqual(t, key, CacheKey(base, 0, 25, false), "weighting is part of the key")

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dated := base
	dated.DateRange.Start = &start
	assert.NotEqual(t, key, CacheKey(dated, 0, 25, true))

	freeText := base
	freeText.Query = "glycemic control"
	assert.NotEqual(t, key, CacheKey(freeText, 0, 25, true))
}
