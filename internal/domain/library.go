package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SavedPaper is a Paper persisted under a user.
type SavedPaper struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	PaperID   string     `json:"paper_id"`
	Title     string     `json:"title"`
	Abstract  string     `json:"abstract,omitempty"`
	Authors   []string   `json:"authors"`
	Journal   string     `json:"journal"`
	Year      int        `json:"year"`
	Citations *int       `json:"citations,omitempty"`
	PDFURL    string     `json:"pdf_url,omitempty"`
	IsLiked   bool       `json:"is_liked"`
	ListID    *uuid.UUID `json:"list_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewSavedPaper snapshots a paper for the given user.
func NewSavedPaper(userID uuid.UUID, p Paper) *SavedPaper {
	return &SavedPaper{
		ID:        uuid.New(),
		UserID:    userID,
		PaperID:   p.ID,
		Title:     p.Title,
		Abstract:  p.Abstract,
		Authors:   append([]string(nil), p.Authors...),
		Journal:   p.Journal,
		Year:      p.Year,
		Citations: p.Citations,
		PDFURL:    p.PDFURL,
		CreatedAt: time.Now().UTC(),
	}
}

// Paper converts the saved snapshot back to a Paper for sorting and display.
func (s *SavedPaper) Paper() Paper {
	return Paper{
		ID:        s.PaperID,
		Title:     s.Title,
		Abstract:  s.Abstract,
		Authors:   s.Authors,
		Journal:   s.Journal,
		Year:      s.Year,
		Citations: s.Citations,
		PDFURL:    s.PDFURL,
	}
}

// List is a named, user-owned collection of saved papers.
type List struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	PaperCount int       `json:"paper_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// MaxListNameLength bounds list names.
const MaxListNameLength = 200

// ValidateListName trims and checks a list name.
func ValidateListName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", "list name is required")
	}
	if len(name) > MaxListNameLength {
		return "", NewValidationError("name", "list name is too long")
	}
	return name, nil
}

// ListSummaryItem is one row of a list summary export.
type ListSummaryItem struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Journal string `json:"journal"`
	Year    int    `json:"year"`
}

// BuildListSummary renders saved papers as export rows, authors comma-joined.
func BuildListSummary(papers []*SavedPaper) []ListSummaryItem {
	items := make([]ListSummaryItem, 0, len(papers))
	for _, p := range papers {
		items = append(items, ListSummaryItem{
			Title:   p.Title,
			Authors: strings.Join(p.Authors, ", "),
			Journal: p.Journal,
			Year:    p.Year,
		})
	}
	return items
}

// SavedPaperFilter narrows a saved-paper listing.
type SavedPaperFilter struct {
	UserID     uuid.UUID
	LikedOnly  bool
	ListID     *uuid.UUID
	Unassigned bool
	Limit      int
	Offset     int
}

// SearchHistoryEntry records a search submitted by an authenticated user.
type SearchHistoryEntry struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Medicine         string    `json:"medicine,omitempty"`
	Condition        string    `json:"condition,omitempty"`
	WorkingMechanism string    `json:"working_mechanism,omitempty"`
	Population       string    `json:"population,omitempty"`
	TrialType        string    `json:"trial_type,omitempty"`
	PatientCount     *int      `json:"patient_count,omitempty"`
	TotalResults     int       `json:"total_results"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewSearchHistoryEntry builds a history row from submitted criteria.
func NewSearchHistoryEntry(userID uuid.UUID, c SearchCriteria, total int) *SearchHistoryEntry {
	return &SearchHistoryEntry{
		ID:               uuid.New(),
		UserID:           userID,
		Medicine:         c.Medicine,
		Condition:        c.Condition,
		WorkingMechanism: c.WorkingMechanism,
		Population:       c.Population,
		TrialType:        c.TrialType,
		PatientCount:     c.PatientCountMin,
		TotalResults:     total,
		CreatedAt:        time.Now().UTC(),
	}
}

// CachedSearch is a stored search result window keyed by serialized parameters.
type CachedSearch struct {
	CacheKey  string    `json:"cache_key"`
	Papers    []Paper   `json:"papers"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID uuid.UUID
	Email  string
}
