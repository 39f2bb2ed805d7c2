package httpserver

import (
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Response types for JSON serialization.

type searchErrorResponse struct {
	Error  string         `json:"error"`
	Papers []domain.Paper `json:"papers"`
}

type citationsResponse struct {
	Citations int `json:"citations"`
}

type enrichResponse struct {
	Papers []domain.Paper `json:"papers"`
	Total  int            `json:"total"`
}

type journalsResponse struct {
	Journals []domain.Journal `json:"journals"`
}

type articleTypesResponse struct {
	ArticleTypes []string `json:"article_types"`
}

type savedPapersResponse struct {
	Papers []*domain.SavedPaper `json:"papers"`
	Total  int64                `json:"total"`
}

func newSavedPapersResponse(papers []*domain.SavedPaper, total int64) savedPapersResponse {
	if papers == nil {
		papers = []*domain.SavedPaper{}
	}
	return savedPapersResponse{Papers: papers, Total: total}
}

type listsResponse struct {
	Lists []*domain.List `json:"lists"`
}

type createListResponse struct {
	List       *domain.List       `json:"list"`
	SavedPaper *domain.SavedPaper `json:"saved_paper,omitempty"`
}

type deleteListResponse struct {
	Deleted  bool  `json:"deleted"`
	Unlinked int64 `json:"unlinked"`
}

type historyResponse struct {
	History []*domain.SearchHistoryEntry `json:"history"`
}
