// Package report はユーザーからの通報の受け付けを提供する。
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
	"github.com/hitoshi/bandmatch/internal/security"
)

const maxExtraLength = 256

// Service は通報のビジネスロジックを提供する。
type Service struct {
	reportRepo repository.ReportRepository
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(reportRepo repository.ReportRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{reportRepo: reportRepo, sanitizer: sanitizer}
}

// CreateInput は通報のリクエスト内容。
type CreateInput struct {
	Target                 string
	ReportedAccountID      string
	ReportedConversationID string
	Reason                 string
	ExtraInformation       string
}

// Create は通報を検証して保存する。
// 対象種別に応じて、アカウントIDまたは会話IDのどちらかが必須になる。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Report, error) {
	target := model.ReportTarget(in.Target)
	if !target.Valid() {
		return nil, model.NewReportInvalidError()
	}

	reason := model.ReportReason(in.Reason)
	if !reason.Valid() {
		return nil, model.NewReportInvalidError()
	}

	switch target {
	case model.ReportTargetUser:
		if in.ReportedAccountID == "" {
			return nil, model.NewReportInvalidError()
		}
	case model.ReportTargetConversation:
		if in.ReportedConversationID == "" {
			return nil, model.NewReportInvalidError()
		}
	}

	extra := s.sanitizer.Sanitize(in.ExtraInformation)
	if len(extra) > maxExtraLength {
		return nil, model.NewReportInvalidError()
	}

	report := &model.Report{
		ID:                     uuid.New().String(),
		Target:                 target,
		ReportedAccountID:      in.ReportedAccountID,
		ReportedConversationID: in.ReportedConversationID,
		Reason:                 reason,
		ExtraInformation:       extra,
		CreatedAt:              time.Now(),
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	slog.Info("report created",
		slog.String("report_id", report.ID),
		slog.String("target", string(target)),
		slog.String("reason", string(reason)),
	)

	return report, nil
}
