package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/report"
)

// ReportServiceInterface は通報ハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	// Create は通報を検証して保存する。
	Create(ctx context.Context, in report.CreateInput) (*model.Report, error)
}

// ReportHandler は通報のHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{
		service: service,
	}
}

// createReportRequest は通報作成リクエストのボディ。
type createReportRequest struct {
	Target           string `json:"target"`
	ReportedAccount  string `json:"reportedAccount"`
	Conversation     string `json:"conversation"`
	Reason           string `json:"reason"`
	ExtraInformation string `json:"extraInformation"`
}

// Create は通報の作成を処理する。
// POST /reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	var req createReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := h.service.Create(r.Context(), report.CreateInput{
		Target:                 req.Target,
		ReportedAccountID:      req.ReportedAccount,
		ReportedConversationID: req.Conversation,
		Reason:                 req.Reason,
		ExtraInformation:       req.ExtraInformation,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}
