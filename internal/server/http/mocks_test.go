package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/auth"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/config"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/database"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockSearcher struct {
	searchFn func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

func (m *mockSearcher) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return &domain.SearchResponse{Offset: req.Offset, Limit: req.Limit}, nil
}

type mockCitations struct {
	lookupFn func(ctx context.Context, q domain.CitationQuery) (int, error)
	enrichFn func(ctx context.Context, papers []domain.Paper) ([]domain.Paper, error)
}

func (m *mockCitations) Lookup(ctx context.Context, q domain.CitationQuery) (int, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, q)
	}
	return 0, nil
}

func (m *mockCitations) Enrich(ctx context.Context, papers []domain.Paper) ([]domain.Paper, error) {
	if m.enrichFn != nil {
		return m.enrichFn(ctx, papers)
	}
	return papers, nil
}

type mockLibrary struct {
	savePaperFn     func(ctx context.Context, userID uuid.UUID, paper domain.Paper, listID *uuid.UUID) (*domain.SavedPaper, error)
	setLikedFn      func(ctx context.Context, userID, id uuid.UUID, liked bool) (*domain.SavedPaper, error)
	toggleLikeFn    func(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error)
	assignListFn    func(ctx context.Context, userID, id uuid.UUID, listID *uuid.UUID) (*domain.SavedPaper, error)
	deletePaperFn   func(ctx context.Context, userID, id uuid.UUID) error
	listPapersFn    func(ctx context.Context, filter domain.SavedPaperFilter, sortOpts *domain.SortOptions) ([]*domain.SavedPaper, int64, error)
	createListFn    func(ctx context.Context, userID uuid.UUID, name string, first *domain.Paper) (*domain.List, *domain.SavedPaper, error)
	renameListFn    func(ctx context.Context, userID, id uuid.UUID, name string) (*domain.List, error)
	deleteListFn    func(ctx context.Context, userID, id uuid.UUID) (int64, error)
	getListFn       func(ctx context.Context, userID, id uuid.UUID) (*domain.List, error)
	listsFn         func(ctx context.Context, userID uuid.UUID) ([]*domain.List, error)
	exportListFn    func(ctx context.Context, userID, id uuid.UUID) (*domain.List, []domain.ListSummaryItem, error)
	historyFn       func(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SearchHistoryEntry, error)
	deleteHistoryFn func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockLibrary) SavePaper(ctx context.Context, userID uuid.UUID, paper domain.Paper, listID *uuid.UUID) (*domain.SavedPaper, error) {
	if m.savePaperFn != nil {
		return m.savePaperFn(ctx, userID, paper, listID)
	}
	return domain.NewSavedPaper(userID, paper), nil
}

func (m *mockLibrary) SetLiked(ctx context.Context, userID, id uuid.UUID, liked bool) (*domain.SavedPaper, error) {
	if m.setLikedFn != nil {
		return m.setLikedFn(ctx, userID, id, liked)
	}
	return nil, domain.NewNotFoundError("saved paper", id.String())
}

func (m *mockLibrary) ToggleLike(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error) {
	if m.toggleLikeFn != nil {
		return m.toggleLikeFn(ctx, userID, id)
	}
	return nil, domain.NewNotFoundError("saved paper", id.String())
}

func (m *mockLibrary) AssignList(ctx context.Context, userID, id uuid.UUID, listID *uuid.UUID) (*domain.SavedPaper, error) {
	if m.assignListFn != nil {
		return m.assignListFn(ctx, userID, id, listID)
	}
	return nil, domain.NewNotFoundError("saved paper", id.String())
}

func (m *mockLibrary) DeletePaper(ctx context.Context, userID, id uuid.UUID) error {
	if m.deletePaperFn != nil {
		return m.deletePaperFn(ctx, userID, id)
	}
	return nil
}

func (m *mockLibrary) ListPapers(ctx context.Context, filter domain.SavedPaperFilter, sortOpts *domain.SortOptions) ([]*domain.SavedPaper, int64, error) {
	if m.listPapersFn != nil {
		return m.listPapersFn(ctx, filter, sortOpts)
	}
	return nil, 0, nil
}

func (m *mockLibrary) CreateList(ctx context.Context, userID uuid.UUID, name string, first *domain.Paper) (*domain.List, *domain.SavedPaper, error) {
	if m.createListFn != nil {
		return m.createListFn(ctx, userID, name, first)
	}
	return &domain.List{ID: uuid.New(), UserID: userID, Name: name}, nil, nil
}

func (m *mockLibrary) RenameList(ctx context.Context, userID, id uuid.UUID, name string) (*domain.List, error) {
	if m.renameListFn != nil {
		return m.renameListFn(ctx, userID, id, name)
	}
	return &domain.List{ID: id, UserID: userID, Name: name}, nil
}

func (m *mockLibrary) DeleteList(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	if m.deleteListFn != nil {
		return m.deleteListFn(ctx, userID, id)
	}
	return 0, nil
}

func (m *mockLibrary) GetList(ctx context.Context, userID, id uuid.UUID) (*domain.List, error) {
	if m.getListFn != nil {
		return m.getListFn(ctx, userID, id)
	}
	return nil, domain.NewNotFoundError("list", id.String())
}

func (m *mockLibrary) Lists(ctx context.Context, userID uuid.UUID) ([]*domain.List, error) {
	if m.listsFn != nil {
		return m.listsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockLibrary) ExportList(ctx context.Context, userID, id uuid.UUID) (*domain.List, []domain.ListSummaryItem, error) {
	if m.exportListFn != nil {
		return m.exportListFn(ctx, userID, id)
	}
	return nil, nil, domain.NewNotFoundError("list", id.String())
}

func (m *mockLibrary) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SearchHistoryEntry, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockLibrary) DeleteHistory(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteHistoryFn != nil {
		return m.deleteHistoryFn(ctx, userID, id)
	}
	return nil
}

type mockHealth struct {
	status database.HealthStatus
}

func (m *mockHealth) Health(context.Context) database.HealthStatus {
	return m.status
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testSecret = "test-secret-with-enough-bytes-1234"

type testEnv struct {
	server    *Server
	searcher  *mockSearcher
	citations *mockCitations
	library   *mockLibrary
	verifier  *auth.Verifier
	userID    uuid.UUID
	token     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	verifier, err := auth.NewVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	userID := uuid.New()
	token, err := verifier.Sign(domain.Session{UserID: userID, Email: "doc@example.org"}, time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		searcher:  &mockSearcher{},
		citations: &mockCitations{},
		library:   &mockLibrary{},
		verifier:  verifier,
		userID:    userID,
		token:     token,
	}
	env.server = NewServer(Config{MaxEnrichPapers: 3}, Dependencies{
		Search:    env.searcher,
		Citations: env.citations,
		Library:   env.library,
		Verifier:  verifier,
		Health:    &mockHealth{status: database.HealthStatus{Status: "healthy"}},
	}, zerolog.Nop())
	return env
}

// do sends a request through the router. body may be nil, a string or a
// value to encode as JSON.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	msg, _ := body["error"].(string)
	return msg
}
