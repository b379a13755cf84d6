package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bandmatch/internal/model"
)

// --- モック定義 ---

// mockMatchService はMatchServiceInterfaceのモック実装。
type mockMatchService struct {
	searchFn func(ctx context.Context, seekerID string) ([]model.MatchCandidate, error)
}

func (m *mockMatchService) Search(ctx context.Context, seekerID string) ([]model.MatchCandidate, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, seekerID)
	}
	return nil, nil
}

// --- GET /search テスト ---

func TestSearchHandler_Search_ReturnsMatches(t *testing.T) {
	svc := &mockMatchService{
		searchFn: func(ctx context.Context, seekerID string) ([]model.MatchCandidate, error) {
			if seekerID != "account-1" {
				t.Errorf("seekerID = %q, want %q", seekerID, "account-1")
			}
			return []model.MatchCandidate{
				{
					ID:             "account-2",
					DisplayName:    "Hanako",
					SearchType:     model.SearchTypeRecruit,
					FullSearchType: "Recruit a band member",
					Genres:         []string{"rock"},
					Instruments:    []string{"drums"},
				},
			}, nil
		},
	}

	h := NewSearchHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req = withAccountID(req, "account-1")
	w := httptest.NewRecorder()

	h.Search(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if len(body.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(body.Matches))
	}
	if body.Matches[0].FullSearchType != "Recruit a band member" {
		t.Errorf("fullSearchType = %q", body.Matches[0].FullSearchType)
	}
}

func TestSearchHandler_Search_EmptyResult_ReturnsEmptyArray(t *testing.T) {
	h := NewSearchHandler(&mockMatchService{})

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req = withAccountID(req, "account-1")
	w := httptest.NewRecorder()

	h.Search(w, req)

	var body searchResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Matches == nil {
		t.Error("matches should be an empty array, not null")
	}
	if len(body.Matches) != 0 {
		t.Errorf("matches = %d, want 0", len(body.Matches))
	}
}

func TestSearchHandler_Search_NoAccount_Returns401(t *testing.T) {
	h := NewSearchHandler(&mockMatchService{})

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()

	h.Search(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestSearchHandler_Search_SeekerNotFound_Returns400(t *testing.T) {
	svc := &mockMatchService{
		searchFn: func(ctx context.Context, seekerID string) ([]model.MatchCandidate, error) {
			return nil, model.NewAccountNotFoundError()
		},
	}

	h := NewSearchHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req = withAccountID(req, "ghost")
	w := httptest.NewRecorder()

	h.Search(w, req)

	env := decodeEnvelope(t, w)
	if env.Success {
		t.Error("success = true, want false")
	}
}
