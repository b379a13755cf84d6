package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bandmatch/internal/admin"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
)

// --- モック定義 ---

// mockAdminService はAdminServiceInterfaceのモック実装。
type mockAdminService struct {
	searchAccountsFn   func(ctx context.Context, query, adminID string) ([]repository.AccountSummary, error)
	setAdminFn         func(ctx context.Context, accountID string, admin bool) error
	clearDescriptionFn func(ctx context.Context, accountID string) error
	clearDisplayNameFn func(ctx context.Context, accountID string) error
	deleteAccountFn    func(ctx context.Context, accountID string) error
	listReportsFn      func(ctx context.Context) ([]repository.ReportView, error)
	deleteReportFn     func(ctx context.Context, reportID string) error
	dailyStatsFn       func(ctx context.Context, date time.Time) (*model.DailyStat, error)
	periodStatsFn      func(ctx context.Context, end time.Time, days int) (*admin.PeriodSummary, error)
	referrerStatsFn    func(ctx context.Context, end time.Time, days int) ([]model.ReferrerCount, error)
	locationDataFn     func(ctx context.Context) ([]model.GeoPoint, error)
}

func (m *mockAdminService) SearchAccounts(ctx context.Context, query, adminID string) ([]repository.AccountSummary, error) {
	if m.searchAccountsFn != nil {
		return m.searchAccountsFn(ctx, query, adminID)
	}
	return nil, nil
}

func (m *mockAdminService) SetAdmin(ctx context.Context, accountID string, admin bool) error {
	if m.setAdminFn != nil {
		return m.setAdminFn(ctx, accountID, admin)
	}
	return nil
}

func (m *mockAdminService) ClearDescription(ctx context.Context, accountID string) error {
	if m.clearDescriptionFn != nil {
		return m.clearDescriptionFn(ctx, accountID)
	}
	return nil
}

func (m *mockAdminService) ClearDisplayName(ctx context.Context, accountID string) error {
	if m.clearDisplayNameFn != nil {
		return m.clearDisplayNameFn(ctx, accountID)
	}
	return nil
}

func (m *mockAdminService) DeleteAccount(ctx context.Context, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, accountID)
	}
	return nil
}

func (m *mockAdminService) ListReports(ctx context.Context) ([]repository.ReportView, error) {
	if m.listReportsFn != nil {
		return m.listReportsFn(ctx)
	}
	return nil, nil
}

func (m *mockAdminService) DeleteReport(ctx context.Context, reportID string) error {
	if m.deleteReportFn != nil {
		return m.deleteReportFn(ctx, reportID)
	}
	return nil
}

func (m *mockAdminService) DailyStats(ctx context.Context, date time.Time) (*model.DailyStat, error) {
	if m.dailyStatsFn != nil {
		return m.dailyStatsFn(ctx, date)
	}
	return &model.DailyStat{Date: date}, nil
}

func (m *mockAdminService) PeriodStats(ctx context.Context, end time.Time, days int) (*admin.PeriodSummary, error) {
	if m.periodStatsFn != nil {
		return m.periodStatsFn(ctx, end, days)
	}
	return &admin.PeriodSummary{}, nil
}

func (m *mockAdminService) ReferrerStats(ctx context.Context, end time.Time, days int) ([]model.ReferrerCount, error) {
	if m.referrerStatsFn != nil {
		return m.referrerStatsFn(ctx, end, days)
	}
	return nil, nil
}

func (m *mockAdminService) LocationData(ctx context.Context) ([]model.GeoPoint, error) {
	if m.locationDataFn != nil {
		return m.locationDataFn(ctx)
	}
	return nil, nil
}

// adminTestRouter はURLパラメータ付きルートのテスト用ルーターを組み立てる。
func adminTestRouter(h *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/admin/users", h.SearchAccounts)
	r.Patch("/admin/users/{id}/promote", h.Promote)
	r.Patch("/admin/users/{id}/demote", h.Demote)
	r.Delete("/admin/users/{id}", h.DeleteAccount)
	r.Delete("/admin/users/{id}/description", h.ClearDescription)
	r.Delete("/admin/reports/{id}", h.DeleteReport)
	r.Get("/admin/analytics/daily", h.DailyStats)
	r.Get("/admin/analytics/period", h.PeriodStats)
	r.Get("/admin/analytics/referrals", h.Referrals)
	return r
}

// --- アカウント管理テスト ---

func TestAdminHandler_SearchAccounts_PassesQueryAndAdminID(t *testing.T) {
	var gotQuery, gotAdminID string
	svc := &mockAdminService{
		searchAccountsFn: func(ctx context.Context, query, adminID string) ([]repository.AccountSummary, error) {
			gotQuery = query
			gotAdminID = adminID
			return []repository.AccountSummary{
				{ID: "account-2", DisplayName: "Hanako", Email: "hanako@example.com"},
			}, nil
		},
	}

	router := adminTestRouter(NewAdminHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/admin/users?q=hanako", nil)
	req = withAccountID(req, "admin-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if gotQuery != "hanako" {
		t.Errorf("query = %q, want %q", gotQuery, "hanako")
	}
	if gotAdminID != "admin-1" {
		t.Errorf("adminID = %q, want %q", gotAdminID, "admin-1")
	}

	var body struct {
		Success bool                    `json:"success"`
		Users   []accountSummaryPayload `json:"users"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Users) != 1 || body.Users[0].Email != "hanako@example.com" {
		t.Errorf("users = %v", body.Users)
	}
}

func TestAdminHandler_Promote_SetsAdminTrue(t *testing.T) {
	var gotID string
	var gotAdmin bool
	svc := &mockAdminService{
		setAdminFn: func(ctx context.Context, accountID string, admin bool) error {
			gotID = accountID
			gotAdmin = admin
			return nil
		},
	}

	router := adminTestRouter(NewAdminHandler(svc))

	req := httptest.NewRequest(http.MethodPatch, "/admin/users/account-2/promote", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if gotID != "account-2" {
		t.Errorf("accountID = %q, want %q", gotID, "account-2")
	}
	if !gotAdmin {
		t.Error("admin = false, want true")
	}
}

func TestAdminHandler_Demote_SetsAdminFalse(t *testing.T) {
	var gotAdmin bool
	svc := &mockAdminService{
		setAdminFn: func(ctx context.Context, accountID string, admin bool) error {
			gotAdmin = admin
			return nil
		},
	}

	router := adminTestRouter(NewAdminHandler(svc))

	req := httptest.NewRequest(http.MethodPatch, "/admin/users/account-2/demote", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if gotAdmin {
		t.Error("admin = true, want false")
	}
}

func TestAdminHandler_DeleteAccount_NotFound_Returns400(t *testing.T) {
	svc := &mockAdminService{
		deleteAccountFn: func(ctx context.Context, accountID string) error {
			return model.NewAccountNotFoundError()
		},
	}

	router := adminTestRouter(NewAdminHandler(svc))

	req := httptest.NewRequest(http.MethodDelete, "/admin/users/ghost", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// --- 通報管理テスト ---

func TestAdminHandler_ListReports_DeletedAccountIsNull(t *testing.T) {
	svc := &mockAdminService{
		listReportsFn: func(ctx context.Context) ([]repository.ReportView, error) {
			return []repository.ReportView{
				{
					Report: model.Report{
						ID:     "report-1",
						Target: model.ReportTargetUser,
						Reason: model.ReasonSpam,
					},
					ReportedAccount: nil, // 通報後にアカウントが削除された
				},
			}, nil
		},
	}

	h := NewAdminHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/reports", nil)
	w := httptest.NewRecorder()

	h.ListReports(w, req)

	var body struct {
		Success bool            `json:"success"`
		Reports []reportPayload `json:"reports"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(body.Reports))
	}
	if body.Reports[0].ReportedAccount != nil {
		t.Errorf("reportedAccount = %v, want nil", body.Reports[0].ReportedAccount)
	}
}

// --- 統計テスト ---

func TestAdminHandler_DailyStats_ParsesDate(t *testing.T) {
	var gotDate time.Time
	svc := &mockAdminService{
		dailyStatsFn: func(ctx context.Context, date time.Time) (*model.DailyStat, error) {
			gotDate = date
			return &model.DailyStat{Date: date, Signups: 5}, nil
		},
	}

	router := adminTestRouter(NewAdminHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/daily?y=2024&m=5&d=1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if !gotDate.Equal(want) {
		t.Errorf("date = %v, want %v", gotDate, want)
	}

	var body struct {
		Success bool             `json:"success"`
		Stats   dailyStatPayload `json:"stats"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Stats.Signups != 5 {
		t.Errorf("signups = %d, want 5", body.Stats.Signups)
	}
}

func TestAdminHandler_DailyStats_MissingParams_Returns400(t *testing.T) {
	router := adminTestRouter(NewAdminHandler(&mockAdminService{}))

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/daily?y=2024", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestAdminHandler_PeriodStats_PassesPeriod(t *testing.T) {
	var gotDays int
	svc := &mockAdminService{
		periodStatsFn: func(ctx context.Context, end time.Time, days int) (*admin.PeriodSummary, error) {
			gotDays = days
			return &admin.PeriodSummary{
				Days:   []*model.DailyStat{{Date: end}},
				Totals: model.DailyStat{Signups: 12},
			}, nil
		},
	}

	router := adminTestRouter(NewAdminHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/period?y=2024&m=5&d=7&p=7", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if gotDays != 7 {
		t.Errorf("days = %d, want 7", gotDays)
	}

	var body struct {
		Success bool               `json:"success"`
		Stats   []dailyStatPayload `json:"stats"`
		Totals  dailyStatPayload   `json:"totals"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Totals.Signups != 12 {
		t.Errorf("totals.signups = %d, want 12", body.Totals.Signups)
	}
}

func TestAdminHandler_PeriodStats_InvalidPeriod_Returns400(t *testing.T) {
	router := adminTestRouter(NewAdminHandler(&mockAdminService{}))

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/period?y=2024&m=5&d=7&p=0", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestAdminHandler_Referrals_ReturnsCounts(t *testing.T) {
	svc := &mockAdminService{
		referrerStatsFn: func(ctx context.Context, end time.Time, days int) ([]model.ReferrerCount, error) {
			return []model.ReferrerCount{
				{URL: "https://example.com", Count: 10},
				{URL: "https://other.example", Count: 3},
			}, nil
		},
	}

	router := adminTestRouter(NewAdminHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/referrals?y=2024&m=5&d=7&p=30", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	var body struct {
		Success   bool                  `json:"success"`
		Referrers []model.ReferrerCount `json:"referrers"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Referrers) != 2 || body.Referrers[0].Count != 10 {
		t.Errorf("referrers = %v", body.Referrers)
	}
}

func TestAdminHandler_Locations_ReturnsCoordinates(t *testing.T) {
	svc := &mockAdminService{
		locationDataFn: func(ctx context.Context) ([]model.GeoPoint, error) {
			return []model.GeoPoint{{Longitude: 139.69, Latitude: 35.68}}, nil
		},
	}

	h := NewAdminHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/users/locations", nil)
	w := httptest.NewRecorder()

	h.Locations(w, req)

	var body struct {
		Success   bool              `json:"success"`
		Locations []geoPointPayload `json:"locations"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Locations) != 1 || body.Locations[0].Longitude != 139.69 {
		t.Errorf("locations = %v", body.Locations)
	}
}
