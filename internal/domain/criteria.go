package domain

import (
	"strings"
	"time"
)

// DateRange bounds the publication date of a search. Nil ends are open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// SearchCriteria is the structured search form submitted by a user.
// Medicine and Condition accept comma-separated term lists.
type SearchCriteria struct {
	Medicine         string    `json:"medicine,omitempty"`
	Condition        string    `json:"condition,omitempty"`
	WorkingMechanism string    `json:"working_mechanism,omitempty"`
	Population       string    `json:"population,omitempty"`
	PatientCountMin  *int      `json:"patient_count_min,omitempty"`
	TrialType        string    `json:"trial_type,omitempty"`
	Journal          string    `json:"journal,omitempty"`
	Journals         []string  `json:"journals,omitempty"`
	DateRange        DateRange `json:"date_range"`
	ArticleTypes     []string  `json:"article_types,omitempty"`

	// Query switches relevance scoring to free-text mode when set.
	Query string `json:"query,omitempty"`
}

// Validate checks that at least one of medicine or condition is present.
func (c SearchCriteria) Validate() error {
	if strings.TrimSpace(c.Medicine) == "" && strings.TrimSpace(c.Condition) == "" {
		return NewValidationError("criteria", "medicine or condition is required")
	}
	if c.PatientCountMin != nil && *c.PatientCountMin < 0 {
		return NewValidationError("patient_count_min", "must not be negative")
	}
	if c.DateRange.Start != nil && c.DateRange.End != nil && c.DateRange.End.Before(*c.DateRange.Start) {
		return NewValidationError("date_range", "end must not be before start")
	}
	return nil
}

// MedicineTerms returns the individual medicine terms.
func (c SearchCriteria) MedicineTerms() []string {
	return SplitTerms(c.Medicine)
}

// ConditionTerms returns the individual condition terms.
func (c SearchCriteria) ConditionTerms() []string {
	return SplitTerms(c.Condition)
}

// JournalNames returns the journal filter, merging Journal and Journals.
func (c SearchCriteria) JournalNames() []string {
	names := make([]string, 0, len(c.Journals)+1)
	seen := make(map[string]struct{}, len(c.Journals)+1)
	for _, j := range append([]string{c.Journal}, c.Journals...) {
		j = strings.TrimSpace(j)
		if j == "" {
			continue
		}
		if _, ok := seen[j]; ok {
			continue
		}
		seen[j] = struct{}{}
		names = append(names, j)
	}
	return names
}

// SplitTerms splits a comma-separated list, trimming entries and dropping empties.
func SplitTerms(s string) []string {
	parts := strings.Split(s, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}

// Sort keys accepted by the presentation layer.
const (
	SortByCitations = "citations"
	SortByDate      = "date"
	SortByRelevance = "relevance"
	SortByTitle     = "title"
	SortByComposite = "composite"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortOptions selects the ordering of a result set.
type SortOptions struct {
	By        string `json:"by,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// SearchRequest is a single "run search" invocation.
type SearchRequest struct {
	Criteria SearchCriteria `json:"criteria"`
	Offset   int            `json:"offset"`
	Limit    int            `json:"limit"`
	Sort     *SortOptions   `json:"sort,omitempty"`
}

// SearchResponse is the result window returned to the caller.
type SearchResponse struct {
	Papers []Paper `json:"papers"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}
