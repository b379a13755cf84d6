package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/stats"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// StatHandler は利用統計の記録とヘルスチェックのHTTPハンドラー。
type StatHandler struct {
	recorder *stats.Recorder
	health   HealthChecker
}

// NewStatHandler はStatHandlerを生成する。
func NewStatHandler(recorder *stats.Recorder, health HealthChecker) *StatHandler {
	return &StatHandler{
		recorder: recorder,
		health:   health,
	}
}

// Root はトップページの閲覧を記録する。
// GET /
func (h *StatHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.recorder.Record(model.StatRootViews)
	writeSuccess(w)
}

// Referrer は参照元URLの流入を記録する。
// POST /ref?r=
func (h *StatHandler) Referrer(w http.ResponseWriter, r *http.Request) {
	if ref := r.URL.Query().Get("r"); ref != "" {
		h.recorder.RecordReferrer(ref)
	}
	writeSuccess(w)
}

// Health はDB接続を確認してサービスの状態を返す。
// GET /health
func (h *StatHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
