// Package domain holds the core types shared by the literature search pipeline,
// the citation enricher and the saved-paper library.
package domain

import "strings"

// Paper is a single literature record produced by the article parser.
// Citations and RelevanceScore stay nil until the enricher and scorer fill them.
type Paper struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Abstract         string   `json:"abstract"`
	Authors          []string `json:"authors"`
	Journal          string   `json:"journal"`
	Year             int      `json:"year"`
	Citations        *int     `json:"citations,omitempty"`
	RelevanceScore   *float64 `json:"relevance_score,omitempty"`
	CompositeScore   *float64 `json:"composite_score,omitempty"`
	PDFURL           string   `json:"pdf_url,omitempty"`
	DOI              string   `json:"doi,omitempty"`
	PublicationTypes []string `json:"publication_types,omitempty"`
	PatientCount     *int     `json:"patient_count,omitempty"`
}

// HasCitations reports whether the paper already carries a citation count.
func (p *Paper) HasCitations() bool {
	return p.Citations != nil
}

// SetCitations records a citation count on the paper.
func (p *Paper) SetCitations(n int) {
	p.Citations = &n
}

// SetRelevanceScore records a relevance score on the paper.
func (p *Paper) SetRelevanceScore(score float64) {
	p.RelevanceScore = &score
}

// SetCompositeScore records the composite ranking score on the paper.
func (p *Paper) SetCompositeScore(score float64) {
	p.CompositeScore = &score
}

// Composite returns the composite score, or 0 when not yet ranked.
func (p *Paper) Composite() float64 {
	if p.CompositeScore == nil {
		return 0
	}
	return *p.CompositeScore
}

// CitationCount returns the citation count, or 0 when not yet enriched.
func (p *Paper) CitationCount() int {
	if p.Citations == nil {
		return 0
	}
	return *p.Citations
}

// Score returns the relevance score, or 0 when not yet scored.
func (p *Paper) Score() float64 {
	if p.RelevanceScore == nil {
		return 0
	}
	return *p.RelevanceScore
}

// CitationQuery returns the bibliographic fields used to look up citations.
func (p *Paper) CitationQuery() CitationQuery {
	return CitationQuery{
		PMID:    p.ID,
		DOI:     p.DOI,
		Title:   p.Title,
		Authors: p.Authors,
		Journal: p.Journal,
		Year:    p.Year,
	}
}

// CitationQuery identifies a paper for citation lookups. Any field may be empty;
// sources use whatever subset they understand.
type CitationQuery struct {
	PMID    string   `json:"pmid,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Journal string   `json:"journal,omitempty"`
	Year    int      `json:"year,omitempty"`
}

// FirstAuthor returns the first listed author or "".
func (q CitationQuery) FirstAuthor() string {
	if len(q.Authors) == 0 {
		return ""
	}
	return strings.TrimSpace(q.Authors[0])
}

// IsEmpty reports whether the query carries nothing a source could search on.
func (q CitationQuery) IsEmpty() bool {
	return strings.TrimSpace(q.PMID) == "" && strings.TrimSpace(q.DOI) == "" && strings.TrimSpace(q.Title) == ""
}
