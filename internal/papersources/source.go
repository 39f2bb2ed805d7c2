// Package papersources defines the citation source abstraction and the shared
// HTTP plumbing used by every literature and citation API client.
//
// Each citation index (PubMed cited-by, Crossref, OpenAlex, Semantic Scholar)
// implements CitationSource. A Registry queries all enabled sources for a
// paper concurrently and keeps the highest count.
//
//	registry := papersources.NewRegistry()
//	registry.Register(pubmedClient)
//	registry.Register(crossref.New(crossref.Config{Enabled: true}))
//	best, counts := registry.MaxCitations(ctx, paper.CitationQuery())
package papersources

import (
	"context"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// CitationSource looks up how many works cite a paper.
type CitationSource interface {
	// CitationCount returns the citation count for the paper described by q.
	// A paper the source cannot identify yields 0 and no error.
	CitationCount(ctx context.Context, q domain.CitationQuery) (int, error)

	// Name returns a stable identifier used in logs and metrics.
	Name() string

	// IsEnabled reports whether the source should be queried.
	IsEnabled() bool
}
