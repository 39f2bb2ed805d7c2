package httpserver

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/events"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/scoring"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/search"
)

// searchFailedMessage is the only upstream failure detail a search caller sees.
const searchFailedMessage = "failed to search"

type sortRequest struct {
	By        string `json:"by" validate:"omitempty,oneof=citations date relevance title composite"`
	Direction string `json:"direction" validate:"omitempty,oneof=asc desc"`
}

func (s *sortRequest) options() *domain.SortOptions {
	if s == nil {
		return nil
	}
	return &domain.SortOptions{By: s.By, Direction: s.Direction}
}

type searchRequest struct {
	Criteria domain.SearchCriteria `json:"criteria"`
	Offset   int                   `json:"offset" validate:"gte=0"`
	Limit    int                   `json:"limit" validate:"gte=0"`
	Sort     *sortRequest          `json:"sort,omitempty"`
}

type citationsRequest struct {
	Paper   *domain.Paper `json:"paper,omitempty"`
	PMID    string        `json:"pmid,omitempty"`
	DOI     string        `json:"doi,omitempty"`
	Title   string        `json:"title,omitempty"`
	Authors []string      `json:"authors,omitempty"`
	Journal string        `json:"journal,omitempty"`
	Year    int           `json:"year,omitempty" validate:"gte=0"`
}

func (c citationsRequest) query() domain.CitationQuery {
	if c.Paper != nil {
		return c.Paper.CitationQuery()
	}
	return domain.CitationQuery{
		PMID:    c.PMID,
		DOI:     c.DOI,
		Title:   c.Title,
		Authors: c.Authors,
		Journal: c.Journal,
		Year:    c.Year,
	}
}

// enrichRequest carries a client-held result set. Keywords feed the
// composite ranking; sort and the offset/limit window are applied after it.
type enrichRequest struct {
	Papers   []domain.Paper `json:"papers" validate:"required,min=1"`
	Keywords []string       `json:"keywords,omitempty"`
	Sort     *sortRequest   `json:"sort,omitempty"`
	Offset   int            `json:"offset" validate:"gte=0"`
	Limit    int            `json:"limit" validate:"gte=0"`
}

// search handles POST /api/v1/search. Every failure response carries an
// empty papers array so clients can render it directly.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeSearchError(w, r, err)
		return
	}

	resp, err := s.deps.Search.Search(r.Context(), domain.SearchRequest{
		Criteria: req.Criteria,
		Offset:   req.Offset,
		Limit:    req.Limit,
		Sort:     req.Sort.options(),
	})
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}
	if resp.Papers == nil {
		resp.Papers = []domain.Paper{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status != http.StatusBadRequest {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Error().Err(err).Int("status", status).Msg("search failed")
		msg = searchFailedMessage
		if !errors.Is(err, domain.ErrUpstream) {
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, searchErrorResponse{Error: msg, Papers: []domain.Paper{}})
}

// lookupCitations handles POST /api/v1/citations.
func (s *Server) lookupCitations(w http.ResponseWriter, r *http.Request) {
	var req citationsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeServiceError(w, r, err, "lookup_citations")
		return
	}
	q := req.query()
	if q.IsEmpty() {
		writeError(w, http.StatusBadRequest, "pmid, doi or title is required")
		return
	}

	count, err := s.deps.Citations.Lookup(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err, "lookup_citations")
		return
	}
	writeJSON(w, http.StatusOK, citationsResponse{Citations: count})
}

// enrichCitations handles POST /api/v1/citations/enrich: it fills missing
// citation counts, ranks the set and returns the requested window of it.
func (s *Server) enrichCitations(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeServiceError(w, r, err, "enrich_citations")
		return
	}
	if len(req.Papers) > s.config.MaxEnrichPapers {
		s.writeServiceError(w, r, domain.NewValidationError("papers", "too many papers in one request"), "enrich_citations")
		return
	}

	before := 0
	for i := range req.Papers {
		if req.Papers[i].HasCitations() {
			before++
		}
	}

	papers, err := s.deps.Citations.Enrich(r.Context(), req.Papers)
	if err != nil {
		s.writeServiceError(w, r, err, "enrich_citations")
		return
	}

	after := 0
	for i := range papers {
		if papers[i].HasCitations() {
			after++
		}
	}
	userID := uuid.Nil
	if session, ok := sessionFrom(r); ok {
		userID = session.UserID
	}
	s.deps.Emitter.Emit(r.Context(), events.TypeCitationsUpdated, userID, events.CitationsEnriched{
		Papers:   len(papers),
		Enriched: after - before,
	})

	scoring.ApplyComposite(papers, req.Keywords, time.Now().Year())
	if opts := req.Sort.options(); opts != nil {
		papers = search.Sort(papers, *opts)
	}
	total := len(papers)
	papers = search.Paginate(papers, req.Offset, req.Limit)

	writeJSON(w, http.StatusOK, enrichResponse{Papers: papers, Total: total})
}

// listJournals handles GET /api/v1/journals, ordered by weight then name.
func (s *Server) listJournals(w http.ResponseWriter, r *http.Request) {
	journals := make([]domain.Journal, 0, len(domain.JournalWeights))
	for name, weight := range domain.JournalWeights {
		journals = append(journals, domain.Journal{Name: name, Weight: weight})
	}
	sort.Slice(journals, func(i, j int) bool {
		if journals[i].Weight != journals[j].Weight {
			return journals[i].Weight > journals[j].Weight
		}
		return journals[i].Name < journals[j].Name
	})
	writeJSON(w, http.StatusOK, journalsResponse{Journals: journals})
}

// listArticleTypes handles GET /api/v1/article-types.
func (s *Server) listArticleTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, articleTypesResponse{ArticleTypes: domain.ArticleTypes})
}
