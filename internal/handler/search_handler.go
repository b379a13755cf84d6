package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/bandmatch/internal/model"
)

// MatchServiceInterface は検索ハンドラーが必要とするサービスインターフェース。
type MatchServiceInterface interface {
	// Search は認証済みアカウントの条件に合う相補的な候補を検索する。
	Search(ctx context.Context, seekerID string) ([]model.MatchCandidate, error)
}

// SearchHandler はマッチ検索のHTTPハンドラー。
type SearchHandler struct {
	service MatchServiceInterface
}

// NewSearchHandler はSearchHandlerを生成する。
func NewSearchHandler(service MatchServiceInterface) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

// searchResponse はマッチ検索のAPIレスポンス。
type searchResponse struct {
	Success bool                    `json:"success"`
	Matches []publicProfileResponse `json:"matches"`
}

// Search はマッチ検索を処理する。
// GET /search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	candidates, err := h.service.Search(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	matches := make([]publicProfileResponse, 0, len(candidates))
	for i := range candidates {
		matches = append(matches, toPublicProfileResponse(&candidates[i]))
	}

	writeJSON(w, http.StatusOK, searchResponse{Success: true, Matches: matches})
}
