package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bandmatch/internal/auth"
	"github.com/hitoshi/bandmatch/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Signup は新規アカウントを登録し、認証トークンを発行する。
	Signup(ctx context.Context, in auth.SignupInput) (*model.Account, string, error)
	// Login はメールアドレスとパスワードで認証し、トークンを発行する。
	Login(ctx context.Context, email, password string) (*model.Account, string, error)
	// ChangePassword は現在のパスワードを検証して新しいパスワードに変更する。
	ChangePassword(ctx context.Context, accountID, current, newPassword, confirm string) error
	// RequestPasswordReset はリセットトークンを発行してメールを送信する。
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword はリセットトークンを消費してパスワードを設定する。
	ResetPassword(ctx context.Context, resetToken, newPassword, confirm string) error
	// ConfirmEmail は確認トークンを照合してメールアドレスを確認済みにする。
	ConfirmEmail(ctx context.Context, accountID, confirmToken string) error
}

// AuthHandler は認証・資格情報管理のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// signupRequest はアカウント登録リクエストのボディ。
type signupRequest struct {
	Email           string `json:"email"`
	DisplayName     string `json:"displayName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Agreement       bool   `json:"agreement"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// changePasswordRequest はパスワード変更リクエストのボディ。
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// resetPasswordRequest はパスワード再設定リクエストのボディ。
type resetPasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// requestResetRequest はパスワードリセット申請リクエストのボディ。
type requestResetRequest struct {
	Email string `json:"email"`
}

// tokenResponse は認証トークン付きの成功レスポンス。
type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// Signup はアカウント登録を処理する。
// POST /auth/new
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, token, err := h.service.Signup(r.Context(), auth.SignupInput{
		Email:           req.Email,
		DisplayName:     req.DisplayName,
		Password:        req.Password,
		PasswordConfirm: req.ConfirmPassword,
		Agreement:       req.Agreement,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Success: true, Token: token})
}

// Login はログインを処理する。
// POST /auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" {
		handleServiceError(w, model.NewEmailMissingError())
		return
	}
	if req.Password == "" {
		handleServiceError(w, model.NewPasswordMissingError())
		return
	}

	_, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Success: true, Token: token})
}

// Logout はログアウトを処理する。
// トークンはステートレスなためサーバー側に破棄する状態はなく、
// クライアントがトークンを破棄する契機として成功のみ返す。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w)
}

// ChangePassword は認証済みアカウントのパスワード変更を処理する。
// PATCH /auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), accountID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// ResetPassword はリセットトークンによるパスワード再設定を処理する。
// PATCH /auth/password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	resetToken := chi.URLParam(r, "token")

	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), resetToken, req.NewPassword, req.ConfirmPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// RequestPasswordReset はパスワードリセットの申請を処理する。
// PATCH /users/password/request
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// ConfirmEmail はメールアドレスの確認を処理する。
// GET /users/confirm/{token}
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	confirmToken := chi.URLParam(r, "token")

	if err := h.service.ConfirmEmail(r.Context(), accountID, confirmToken); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}
