package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/bandmatch/internal/middleware"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(tokenString string) (string, error)
}

func (m *mockVerifier) Verify(tokenString string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return "", errors.New("invalid token")
}

type mockAdminFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Account, error)
}

func (m *mockAdminFinder) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

type mockStatRepo struct {
	incrementFn func(ctx context.Context, date time.Time, field model.StatField) error
}

func (m *mockStatRepo) Increment(ctx context.Context, date time.Time, field model.StatField) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, date, field)
	}
	return nil
}

func (m *mockStatRepo) AddReferrer(ctx context.Context, date time.Time, url string) error {
	return nil
}

func (m *mockStatRepo) FindByDate(ctx context.Context, date time.Time) (*model.DailyStat, error) {
	return nil, nil
}

func (m *mockStatRepo) ListRange(ctx context.Context, start, end time.Time) ([]*model.DailyStat, error) {
	return nil, nil
}

type mockHealthChecker struct {
	pingErr error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.pingErr
}

// newTestRouter は全ハンドラーをモックで組み立てたルーターを返す。
func newTestRouter(t *testing.T, verifier middleware.TokenVerifier, finder middleware.AccountFinder) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	deps := &RouterDeps{
		TokenVerifier:     verifier,
		AdminFinder:       finder,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		MetricsGatherer:   prometheus.NewRegistry(),

		AuthService:    &mockAuthService{},
		AccountService: &mockAccountService{},
		MatchService:   &mockMatchService{},
		MessageService: &mockMessageService{},
		ReportService:  &mockReportService{},
		AdminService:   &mockAdminService{},

		StatHandler: NewStatHandler(
			stats.NewRecorder(&mockStatRepo{}, nil),
			&mockHealthChecker{},
		),
	}

	return NewRouter(deps)
}

// --- テスト ---

func TestRouter_SignupRoute_IsReachableWithoutAuth(t *testing.T) {
	router := newTestRouter(t, &mockVerifier{}, &mockAdminFinder{})

	req := httptest.NewRequest(http.MethodPost, "/auth/new", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// ボディなしは400（bodyデコード失敗）であり、401ではない
	if w.Result().StatusCode == http.StatusUnauthorized {
		t.Error("signup should not require authentication")
	}
}

func TestRouter_ProtectedRoute_WithoutToken_Returns401(t *testing.T) {
	router := newTestRouter(t, &mockVerifier{}, &mockAdminFinder{})

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_ProtectedRoute_WithToken_Succeeds(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "account-1", nil
		},
	}
	router := newTestRouter(t, verifier, &mockAdminFinder{})

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_AdminRoute_NonAdmin_Returns404(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "member-1", nil
		},
	}
	finder := &mockAdminFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Admin: false}, nil
		},
	}
	router := newTestRouter(t, verifier, finder)

	req := httptest.NewRequest(http.MethodGet, "/admin/reports", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestRouter_AdminRoute_Admin_Succeeds(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "admin-1", nil
		},
	}
	finder := &mockAdminFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Admin: true}, nil
		},
	}
	router := newTestRouter(t, verifier, finder)

	req := httptest.NewRequest(http.MethodGet, "/admin/reports", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_Health_Returns200(t *testing.T) {
	router := newTestRouter(t, &mockVerifier{}, &mockAdminFinder{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_Metrics_Returns200(t *testing.T) {
	router := newTestRouter(t, &mockVerifier{}, &mockAdminFinder{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_CORSPreflight_Returns204(t *testing.T) {
	router := newTestRouter(t, &mockVerifier{}, &mockAdminFinder{})

	req := httptest.NewRequest(http.MethodOptions, "/users/profile", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", origin)
	}
}

func TestRouter_Root_RecordsView(t *testing.T) {
	router := newTestRouter(t, &mockVerifier{}, &mockAdminFinder{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}
