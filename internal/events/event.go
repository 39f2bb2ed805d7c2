// Package events publishes domain events about searches and library changes
// to Kafka. Publishing is best effort: failures are logged and counted, never
// returned to the operation that triggered them.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeSearchCompleted  = "search.completed"
	TypePaperSaved       = "paper.saved"
	TypePaperLiked       = "paper.liked"
	TypePaperMoved       = "paper.moved"
	TypePaperDeleted     = "paper.deleted"
	TypeListCreated      = "list.created"
	TypeListRenamed      = "list.renamed"
	TypeListDeleted      = "list.deleted"
	TypeHistoryDeleted   = "search_history.deleted"
	TypeCitationsUpdated = "citations.enriched"
)

// Event is the envelope written to the topic as JSON.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	UserID     string          `json:"user_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event with a fresh ID. userID may be uuid.Nil for anonymous
// searches.
func New(eventType string, userID uuid.UUID, payload interface{}) (Event, error) {
	if eventType == "" {
		return Event{}, errors.New("event type is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal payload: %w", err)
	}

	e := Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}
	if userID != uuid.Nil {
		e.UserID = userID.String()
	}
	return e, nil
}

// Key is the partition key: the user ID, or the event ID when anonymous.
func (e Event) Key() []byte {
	if e.UserID != "" {
		return []byte(e.UserID)
	}
	return []byte(e.ID.String())
}

// SearchCompleted is the payload of search.completed.
type SearchCompleted struct {
	CacheKey string `json:"cache_key"`
	Total    int    `json:"total"`
	Returned int    `json:"returned"`
	Skipped  int    `json:"skipped"`
	Cached   bool   `json:"cached"`
	Mode     string `json:"mode"`
}

// PaperChanged is the payload of the paper.* events.
type PaperChanged struct {
	SavedPaperID uuid.UUID  `json:"saved_paper_id"`
	PaperID      string     `json:"paper_id,omitempty"`
	ListID       *uuid.UUID `json:"list_id,omitempty"`
	Liked        *bool      `json:"liked,omitempty"`
}

// ListChanged is the payload of the list.* events.
type ListChanged struct {
	ListID   uuid.UUID `json:"list_id"`
	Name     string    `json:"name,omitempty"`
	Unlinked int64     `json:"unlinked,omitempty"`
}

// HistoryDeleted is the payload of search_history.deleted.
type HistoryDeleted struct {
	EntryID uuid.UUID `json:"entry_id"`
}

// CitationsEnriched is the payload of citations.enriched.
type CitationsEnriched struct {
	Papers   int `json:"papers"`
	Enriched int `json:"enriched"`
}
