package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bandmatch/internal/admin"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
)

// AdminServiceInterface は管理ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// SearchAccounts は表示名・メールアドレスの部分一致でアカウントを検索する。
	SearchAccounts(ctx context.Context, query, adminID string) ([]repository.AccountSummary, error)
	// SetAdmin は管理者権限を付与または剥奪する。
	SetAdmin(ctx context.Context, accountID string, admin bool) error
	// ClearDescription は自己紹介文を削除する。
	ClearDescription(ctx context.Context, accountID string) error
	// ClearDisplayName は表示名を既定値に戻す。
	ClearDisplayName(ctx context.Context, accountID string) error
	// DeleteAccount はアカウントと所有データを削除する。
	DeleteAccount(ctx context.Context, accountID string) error
	// ListReports は全通報を新しい順に返す。
	ListReports(ctx context.Context) ([]repository.ReportView, error)
	// DeleteReport は対応済みの通報を削除する。
	DeleteReport(ctx context.Context, reportID string) error
	// DailyStats は指定日の統計を返す。
	DailyStats(ctx context.Context, date time.Time) (*model.DailyStat, error)
	// PeriodStats は終了日からさかのぼった期間の統計と合計を返す。
	PeriodStats(ctx context.Context, end time.Time, days int) (*admin.PeriodSummary, error)
	// ReferrerStats は期間内の参照元流入数を集計する。
	ReferrerStats(ctx context.Context, end time.Time, days int) ([]model.ReferrerCount, error)
	// LocationData は全アカウントの座標を返す。
	LocationData(ctx context.Context) ([]model.GeoPoint, error)
}

// AdminHandler は管理画面のHTTPハンドラー。
// 管理者ミドルウェアの後段に配置されることを前提とする。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

// accountSummaryPayload は管理画面のアカウント検索結果のAPIレスポンス。
type accountSummaryPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// reportPayload は通報一覧のAPIレスポンス。
type reportPayload struct {
	ID               string                 `json:"id"`
	Target           string                 `json:"target"`
	ReportedAccount  *accountSummaryPayload `json:"reportedAccount"`
	Conversation     string                 `json:"conversation,omitempty"`
	Reason           string                 `json:"reason"`
	ExtraInformation string                 `json:"extraInformation"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// dailyStatPayload は日次統計のAPIレスポンス。
type dailyStatPayload struct {
	Date         time.Time `json:"date"`
	Signups      int       `json:"signups"`
	Logins       int       `json:"logins"`
	MessagesSent int       `json:"messagesSent"`
	Searches     int       `json:"searches"`
	RootViews    int       `json:"rootViews"`
}

// SearchAccounts はアカウント検索を処理する。
// GET /admin/users?q=
func (h *AdminHandler) SearchAccounts(w http.ResponseWriter, r *http.Request) {
	adminID := requireAccountID(w, r)
	if adminID == "" {
		return
	}

	query := r.URL.Query().Get("q")

	summaries, err := h.service.SearchAccounts(r.Context(), query, adminID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	users := make([]accountSummaryPayload, 0, len(summaries))
	for _, s := range summaries {
		users = append(users, accountSummaryPayload{
			ID:          s.ID,
			DisplayName: s.DisplayName,
			Email:       s.Email,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

// Locations は全アカウントの座標を返す。
// GET /admin/users/locations
func (h *AdminHandler) Locations(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.LocationData(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	locations := make([]geoPointPayload, 0, len(points))
	for _, p := range points {
		locations = append(locations, geoPointPayload{
			Longitude: p.Longitude,
			Latitude:  p.Latitude,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"locations": locations,
	})
}

// Promote はアカウントに管理者権限を付与する。
// PATCH /admin/users/{id}/promote
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

// Demote はアカウントの管理者権限を剥奪する。
// PATCH /admin/users/{id}/demote
func (h *AdminHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false)
}

func (h *AdminHandler) setAdmin(w http.ResponseWriter, r *http.Request, admin bool) {
	accountID := chi.URLParam(r, "id")

	if err := h.service.SetAdmin(r.Context(), accountID, admin); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// DeleteAccount はアカウントの強制削除を処理する。
// DELETE /admin/users/{id}
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	if err := h.service.DeleteAccount(r.Context(), accountID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// ClearDescription は自己紹介文を削除する。
// DELETE /admin/users/{id}/description
func (h *AdminHandler) ClearDescription(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	if err := h.service.ClearDescription(r.Context(), accountID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// ClearDisplayName は表示名を既定値に戻す。
// DELETE /admin/users/{id}/displayname
func (h *AdminHandler) ClearDisplayName(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	if err := h.service.ClearDisplayName(r.Context(), accountID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// ListReports は通報一覧を取得する。
// GET /admin/reports
func (h *AdminHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListReports(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	reports := make([]reportPayload, 0, len(views))
	for i := range views {
		reports = append(reports, toReportPayload(&views[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"reports": reports,
	})
}

// DeleteReport は通報の削除を処理する。
// DELETE /admin/reports/{id}
func (h *AdminHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")

	if err := h.service.DeleteReport(r.Context(), reportID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// DailyStats は指定日の統計を取得する。
// GET /admin/analytics/daily?y=&m=&d=
func (h *AdminHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	date, ok := parseStatDate(w, r)
	if !ok {
		return
	}

	stat, err := h.service.DailyStats(r.Context(), date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   toDailyStatPayload(stat),
	})
}

// PeriodStats は期間の統計を取得する。
// GET /admin/analytics/period?y=&m=&d=&p=
func (h *AdminHandler) PeriodStats(w http.ResponseWriter, r *http.Request) {
	date, ok := parseStatDate(w, r)
	if !ok {
		return
	}
	days, ok := parseStatPeriod(w, r)
	if !ok {
		return
	}

	summary, err := h.service.PeriodStats(r.Context(), date, days)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	stats := make([]dailyStatPayload, 0, len(summary.Days))
	for _, day := range summary.Days {
		stats = append(stats, toDailyStatPayload(day))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
		"totals":  toDailyStatPayload(&summary.Totals),
	})
}

// Referrals は期間の参照元流入数を取得する。
// GET /admin/analytics/referrals?y=&m=&d=&p=
func (h *AdminHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	date, ok := parseStatDate(w, r)
	if !ok {
		return
	}
	days, ok := parseStatPeriod(w, r)
	if !ok {
		return
	}

	referrers, err := h.service.ReferrerStats(r.Context(), date, days)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"referrers": referrers,
	})
}

// --- ヘルパー関数 ---

// parseStatDate はy/m/dクエリパラメータからUTC日付を組み立てる。
func parseStatDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	q := r.URL.Query()
	year, errY := strconv.Atoi(q.Get("y"))
	month, errM := strconv.Atoi(q.Get("m"))
	day, errD := strconv.Atoi(q.Get("d"))
	if errY != nil || errM != nil || errD != nil {
		handleServiceError(w, &model.APIError{
			Field:  "query",
			Kind:   model.KindInvalid,
			Status: http.StatusBadRequest,
		})
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// parseStatPeriod はpクエリパラメータから日数を取得する。
func parseStatPeriod(w http.ResponseWriter, r *http.Request) (int, bool) {
	days, err := strconv.Atoi(r.URL.Query().Get("p"))
	if err != nil || days <= 0 {
		handleServiceError(w, &model.APIError{
			Field:  "query",
			Kind:   model.KindInvalid,
			Status: http.StatusBadRequest,
		})
		return 0, false
	}
	return days, true
}

func toDailyStatPayload(stat *model.DailyStat) dailyStatPayload {
	return dailyStatPayload{
		Date:         stat.Date,
		Signups:      stat.Signups,
		Logins:       stat.Logins,
		MessagesSent: stat.MessagesSent,
		Searches:     stat.Searches,
		RootViews:    stat.RootViews,
	}
}

func toReportPayload(view *repository.ReportView) reportPayload {
	payload := reportPayload{
		ID:               view.ID,
		Target:           string(view.Target),
		Conversation:     view.ReportedConversationID,
		Reason:           string(view.Reason),
		ExtraInformation: view.ExtraInformation,
		CreatedAt:        view.CreatedAt,
	}
	if view.ReportedAccount != nil {
		payload.ReportedAccount = &accountSummaryPayload{
			ID:          view.ReportedAccount.ID,
			DisplayName: view.ReportedAccount.DisplayName,
			Email:       view.ReportedAccount.Email,
		}
	}
	return payload
}
