package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bandmatch/internal/account"
	"github.com/hitoshi/bandmatch/internal/model"
)

// AccountServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// GetSelf は認証済みアカウント自身のプロフィールを取得する。
	GetSelf(ctx context.Context, accountID string) (*model.Account, error)
	// GetByID は他アカウントの公開プロフィールを取得する。
	GetByID(ctx context.Context, accountID string) (*model.MatchCandidate, error)
	// UpdateProfile は指定フィールドのみを検証して更新する。
	UpdateProfile(ctx context.Context, accountID string, patch account.ProfilePatch) (*model.Account, error)
	// Delete はアカウントと所有する会話・メッセージを削除する。
	Delete(ctx context.Context, accountID string) error
	// ExportData はアカウントの全データをエクスポート用に集める。
	ExportData(ctx context.Context, accountID string) (*account.Export, error)
}

// UserHandler はプロフィール管理のHTTPハンドラー。
type UserHandler struct {
	service AccountServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service AccountServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// geoPointPayload は地理座標のリクエスト・レスポンス表現。
type geoPointPayload struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// nilのフィールドは変更されない。
type updateProfileRequest struct {
	Email          *string          `json:"email"`
	DisplayName    *string          `json:"displayName"`
	SearchType     *string          `json:"searchType"`
	Genres         []string         `json:"genres"`
	Instruments    []string         `json:"instruments"`
	Location       *geoPointPayload `json:"location"`
	SearchRadiusKm *float64         `json:"searchRadiusKm"`
	Description    *string          `json:"description"`
	Active         *bool            `json:"active"`
}

// profileResponse は自分のプロフィールのAPIレスポンス。
type profileResponse struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	DisplayName    string          `json:"displayName"`
	SearchType     string          `json:"searchType"`
	Genres         []string        `json:"genres"`
	Instruments    []string        `json:"instruments"`
	Location       geoPointPayload `json:"location"`
	SearchRadiusKm float64         `json:"searchRadiusKm"`
	Description    string          `json:"description"`
	Active         bool            `json:"active"`
	Admin          bool            `json:"admin"`
	EmailConfirmed bool            `json:"emailConfirmed"`
}

// publicProfileResponse は他アカウントの公開プロフィールのAPIレスポンス。
type publicProfileResponse struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	SearchType     string   `json:"searchType"`
	FullSearchType string   `json:"fullSearchType"`
	Genres         []string `json:"genres"`
	Instruments    []string `json:"instruments"`
	Description    string   `json:"description"`
}

// GetProfile は自分のプロフィールを取得する。
// GET /users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	acct, err := h.service.GetSelf(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toProfileResponse(acct),
	})
}

// GetOtherProfile は他アカウントの公開プロフィールを取得する。
// GET /users/profile/{id}
func (h *UserHandler) GetOtherProfile(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	candidate, err := h.service.GetByID(r.Context(), targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toPublicProfileResponse(candidate),
	})
}

// UpdateProfile はプロフィールの部分更新を処理する。
// PATCH /users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := account.ProfilePatch{
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		SearchType:     req.SearchType,
		Genres:         req.Genres,
		Instruments:    req.Instruments,
		SearchRadiusKm: req.SearchRadiusKm,
		Description:    req.Description,
		Active:         req.Active,
	}
	if req.Location != nil {
		patch.Location = &model.GeoPoint{
			Longitude: req.Location.Longitude,
			Latitude:  req.Location.Latitude,
		}
	}

	acct, err := h.service.UpdateProfile(r.Context(), accountID, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toProfileResponse(acct),
	})
}

// Download はアカウントの全データをJSONファイルとして返す。
// GET /users/download
func (h *UserHandler) Download(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	export, err := h.service.ExportData(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", export.Account.DisplayName))
	writeJSON(w, http.StatusOK, export)
}

// Delete はアカウントの削除を処理する。
// DELETE /users
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	if err := h.service.Delete(r.Context(), accountID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// --- ヘルパー関数 ---

func toProfileResponse(acct *model.Account) profileResponse {
	return profileResponse{
		ID:          acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		SearchType:  string(acct.SearchType),
		Genres:      acct.Genres,
		Instruments: acct.Instruments,
		Location: geoPointPayload{
			Longitude: acct.Location.Longitude,
			Latitude:  acct.Location.Latitude,
		},
		SearchRadiusKm: acct.SearchRadiusKm,
		Description:    acct.Description,
		Active:         acct.Active,
		Admin:          acct.Admin,
		EmailConfirmed: acct.EmailConfirmed,
	}
}

func toPublicProfileResponse(candidate *model.MatchCandidate) publicProfileResponse {
	return publicProfileResponse{
		ID:             candidate.ID,
		DisplayName:    candidate.DisplayName,
		SearchType:     string(candidate.SearchType),
		FullSearchType: candidate.FullSearchType,
		Genres:         candidate.Genres,
		Instruments:    candidate.Instruments,
		Description:    candidate.Description,
	}
}
