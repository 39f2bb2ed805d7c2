package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// DefaultSort orders by citation count, most cited first.
var DefaultSort = domain.SortOptions{By: domain.SortByCitations, Direction: domain.SortDesc}

// NormalizeSort fills in missing fields from DefaultSort and rejects unknown
// keys or directions.
func NormalizeSort(opts domain.SortOptions) (domain.SortOptions, error) {
	opts.By = strings.ToLower(strings.TrimSpace(opts.By))
	opts.Direction = strings.ToLower(strings.TrimSpace(opts.Direction))

	switch opts.By {
	case "":
		opts.By = DefaultSort.By
	case domain.SortByCitations, domain.SortByDate, domain.SortByRelevance, domain.SortByTitle, domain.SortByComposite:
	default:
		return opts, domain.NewValidationError("sort.by", "unknown sort key "+opts.By)
	}

	switch opts.Direction {
	case "":
		opts.Direction = DefaultSort.Direction
	case domain.SortAsc, domain.SortDesc:
	default:
		return opts, domain.NewValidationError("sort.direction", "unknown sort direction "+opts.Direction)
	}
	return opts, nil
}

// Sort returns a sorted copy of papers. Missing citation counts, relevance
// and composite scores sort as 0, titles compare case-insensitively, and equal papers keep
// their input order. Invalid options fall back to DefaultSort.
func Sort(papers []domain.Paper, opts domain.SortOptions) []domain.Paper {
	opts, err := NormalizeSort(opts)
	if err != nil {
		opts = DefaultSort
	}

	var compare func(a, b *domain.Paper) int
	switch opts.By {
	case domain.SortByDate:
		compare = func(a, b *domain.Paper) int { return cmp.Compare(a.Year, b.Year) }
	case domain.SortByRelevance:
		compare = func(a, b *domain.Paper) int { return cmp.Compare(a.Score(), b.Score()) }
	case domain.SortByComposite:
		compare = func(a, b *domain.Paper) int { return cmp.Compare(a.Composite(), b.Composite()) }
	case domain.SortByTitle:
		compare = func(a, b *domain.Paper) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		compare = func(a, b *domain.Paper) int { return cmp.Compare(a.CitationCount(), b.CitationCount()) }
	}

	sorted := slices.Clone(papers)
	desc := opts.Direction == domain.SortDesc
	slices.SortStableFunc(sorted, func(a, b domain.Paper) int {
		c := compare(&a, &b)
		if desc {
			return -c
		}
		return c
	})
	return sorted
}

// Paginate returns the window [offset, offset+limit). A non-positive limit
// returns everything from offset.
func Paginate(papers []domain.Paper, offset, limit int) []domain.Paper {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(papers) {
		return []domain.Paper{}
	}
	end := len(papers)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return papers[offset:end]
}
