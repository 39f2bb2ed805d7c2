package httpserver

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

type savePaperRequest struct {
	Paper  *domain.Paper `json:"paper" validate:"required"`
	ListID *uuid.UUID    `json:"list_id,omitempty"`
}

type likeRequest struct {
	Liked *bool `json:"liked,omitempty"`
}

type assignListRequest struct {
	ListID *uuid.UUID `json:"list_id"`
}

type createListRequest struct {
	Name  string        `json:"name" validate:"required,max=200"`
	Paper *domain.Paper `json:"paper,omitempty"`
}

type renameListRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// pageQuery is the paging and ordering accepted by saved-paper listings.
type pageQuery struct {
	Limit     int    `query:"limit" validate:"gte=0,lte=1000"`
	Offset    int    `query:"offset" validate:"gte=0"`
	Sort      string `query:"sort" validate:"omitempty,oneof=citations date relevance title"`
	Direction string `query:"direction" validate:"omitempty,oneof=asc desc"`
}

func parsePageQuery(r *http.Request) (pageQuery, error) {
	var q pageQuery
	var err error
	if q.Limit, err = intQuery(r, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = intQuery(r, "offset"); err != nil {
		return q, err
	}
	q.Sort = strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort")))
	q.Direction = strings.ToLower(strings.TrimSpace(r.URL.Query().Get("direction")))
	return q, validateStruct(q)
}

func (q pageQuery) sortOptions() *domain.SortOptions {
	if q.Sort == "" && q.Direction == "" {
		return nil
	}
	return &domain.SortOptions{By: q.Sort, Direction: q.Direction}
}

// listSavedPapers handles GET /saved-papers?liked=&list_id=&unassigned=.
func (s *Server) listSavedPapers(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	page, err := parsePageQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err, "list_saved_papers")
		return
	}
	filter := domain.SavedPaperFilter{
		UserID: session.UserID,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if filter.LikedOnly, err = boolQuery(r, "liked"); err != nil {
		s.writeServiceError(w, r, err, "list_saved_papers")
		return
	}
	if filter.Unassigned, err = boolQuery(r, "unassigned"); err != nil {
		s.writeServiceError(w, r, err, "list_saved_papers")
		return
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("list_id")); raw != "" {
		listID, err := uuid.Parse(raw)
		if err != nil {
			s.writeServiceError(w, r, domain.NewValidationError("list_id", "must be a valid UUID"), "list_saved_papers")
			return
		}
		filter.ListID = &listID
	}

	papers, total, err := s.deps.Library.ListPapers(r.Context(), filter, page.sortOptions())
	if err != nil {
		s.writeServiceError(w, r, err, "list_saved_papers")
		return
	}
	writeJSON(w, http.StatusOK, newSavedPapersResponse(papers, total))
}

// savePaper handles POST /saved-papers.
func (s *Server) savePaper(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	var req savePaperRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeServiceError(w, r, err, "save_paper")
		return
	}
	saved, err := s.deps.Library.SavePaper(r.Context(), session.UserID, *req.Paper, req.ListID)
	if err != nil {
		s.writeServiceError(w, r, err, "save_paper")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// likePaper handles PATCH /saved-papers/{paperID}/like. Without a body the
// like flag is toggled.
func (s *Server) likePaper(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "paperID")
	if err != nil {
		s.writeServiceError(w, r, err, "like_paper")
		return
	}
	var req likeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.writeServiceError(w, r, err, "like_paper")
		return
	}

	var saved *domain.SavedPaper
	if req.Liked != nil {
		saved, err = s.deps.Library.SetLiked(r.Context(), session.UserID, id, *req.Liked)
	} else {
		saved, err = s.deps.Library.ToggleLike(r.Context(), session.UserID, id)
	}
	if err != nil {
		s.writeServiceError(w, r, err, "like_paper")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// assignPaperList handles PATCH /saved-papers/{paperID}/list. A null list_id
// removes the paper from its list.
func (s *Server) assignPaperList(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "paperID")
	if err != nil {
		s.writeServiceError(w, r, err, "assign_list")
		return
	}
	var req assignListRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeServiceError(w, r, err, "assign_list")
		return
	}
	saved, err := s.deps.Library.AssignList(r.Context(), session.UserID, id, req.ListID)
	if err != nil {
		s.writeServiceError(w, r, err, "assign_list")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// deleteSavedPaper handles DELETE /saved-papers/{paperID}.
func (s *Server) deleteSavedPaper(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "paperID")
	if err != nil {
		s.writeServiceError(w, r, err, "delete_paper")
		return
	}
	if err := s.deps.Library.DeletePaper(r.Context(), session.UserID, id); err != nil {
		s.writeServiceError(w, r, err, "delete_paper")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listLists handles GET /lists.
func (s *Server) listLists(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	lists, err := s.deps.Library.Lists(r.Context(), session.UserID)
	if err != nil {
		s.writeServiceError(w, r, err, "list_lists")
		return
	}
	if lists == nil {
		lists = []*domain.List{}
	}
	writeJSON(w, http.StatusOK, listsResponse{Lists: lists})
}

// createList handles POST /lists, optionally saving a first paper into it.
func (s *Server) createList(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	var req createListRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeServiceError(w, r, err, "create_list")
		return
	}
	list, saved, err := s.deps.Library.CreateList(r.Context(), session.UserID, req.Name, req.Paper)
	if err != nil {
		s.writeServiceError(w, r, err, "create_list")
		return
	}
	writeJSON(w, http.StatusCreated, createListResponse{List: list, SavedPaper: saved})
}

// renameList handles PATCH /lists/{listID}.
func (s *Server) renameList(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "listID")
	if err != nil {
		s.writeServiceError(w, r, err, "rename_list")
		return
	}
	var req renameListRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeServiceError(w, r, err, "rename_list")
		return
	}
	list, err := s.deps.Library.RenameList(r.Context(), session.UserID, id, req.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "rename_list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// deleteList handles DELETE /lists/{listID}. Papers in the list are kept
// and unlinked.
func (s *Server) deleteList(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "listID")
	if err != nil {
		s.writeServiceError(w, r, err, "delete_list")
		return
	}
	unlinked, err := s.deps.Library.DeleteList(r.Context(), session.UserID, id)
	if err != nil {
		s.writeServiceError(w, r, err, "delete_list")
		return
	}
	writeJSON(w, http.StatusOK, deleteListResponse{Deleted: true, Unlinked: unlinked})
}

// listListPapers handles GET /lists/{listID}/papers.
func (s *Server) listListPapers(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "listID")
	if err != nil {
		s.writeServiceError(w, r, err, "list_list_papers")
		return
	}
	page, err := parsePageQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err, "list_list_papers")
		return
	}
	papers, total, err := s.deps.Library.ListPapers(r.Context(), domain.SavedPaperFilter{
		UserID: session.UserID,
		ListID: &id,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, page.sortOptions())
	if err != nil {
		s.writeServiceError(w, r, err, "list_list_papers")
		return
	}
	writeJSON(w, http.StatusOK, newSavedPapersResponse(papers, total))
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// exportFilename turns a list name into a download file name.
func exportFilename(name string) string {
	slug := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "list"
	}
	return slug + "-summary.json"
}

// exportList handles GET /lists/{listID}/export as a JSON attachment.
func (s *Server) exportList(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "listID")
	if err != nil {
		s.writeServiceError(w, r, err, "export_list")
		return
	}
	list, items, err := s.deps.Library.ExportList(r.Context(), session.UserID, id)
	if err != nil {
		s.writeServiceError(w, r, err, "export_list")
		return
	}
	if items == nil {
		items = []domain.ListSummaryItem{}
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(list.Name)))
	writeJSON(w, http.StatusOK, items)
}

// listSearchHistory handles GET /search-history?limit=.
func (s *Server) listSearchHistory(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.writeServiceError(w, r, err, "list_history")
		return
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := s.deps.Library.History(r.Context(), session.UserID, limit)
	if err != nil {
		s.writeServiceError(w, r, err, "list_history")
		return
	}
	if entries == nil {
		entries = []*domain.SearchHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: entries})
}

// deleteSearchHistory handles DELETE /search-history/{entryID}.
func (s *Server) deleteSearchHistory(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r)
	id, err := uuidParam(r, "entryID")
	if err != nil {
		s.writeServiceError(w, r, err, "delete_history")
		return
	}
	if err := s.deps.Library.DeleteHistory(r.Context(), session.UserID, id); err != nil {
		s.writeServiceError(w, r, err, "delete_history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
