// Package admin は管理者向けのモデレーション機能と利用分析を提供する。
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
)

// Service は管理者操作のビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	convRepo    repository.ConversationRepository
	reportRepo  repository.ReportRepository
	statRepo    repository.StatRepository
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	convRepo repository.ConversationRepository,
	reportRepo repository.ReportRepository,
	statRepo repository.StatRepository,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		convRepo:    convRepo,
		reportRepo:  reportRepo,
		statRepo:    statRepo,
	}
}

// SearchAccounts は表示名またはメールアドレスの部分一致でアカウントを検索する。
// 検索を実行した管理者自身は結果から除外される。
func (s *Service) SearchAccounts(ctx context.Context, query, adminID string) ([]repository.AccountSummary, error) {
	if query == "" {
		return nil, nil
	}

	summaries, err := s.accountRepo.SearchByNameOrEmail(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	return summaries, nil
}

// SetAdmin は対象アカウントの管理者フラグを設定する。
func (s *Service) SetAdmin(ctx context.Context, accountID string, admin bool) error {
	target, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if target == nil {
		return model.NewAccountNotFoundError()
	}

	if err := s.accountRepo.SetAdmin(ctx, accountID, admin); err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}

	slog.Info("admin flag changed",
		slog.String("account_id", accountID),
		slog.Bool("admin", admin),
	)
	return nil
}

// ClearDescription は対象アカウントの説明文を強制的に空にする。
func (s *Service) ClearDescription(ctx context.Context, accountID string) error {
	if err := s.accountRepo.ClearDescription(ctx, accountID); err != nil {
		return fmt.Errorf("failed to clear description: %w", err)
	}

	slog.Info("description cleared", slog.String("account_id", accountID))
	return nil
}

// ClearDisplayName は対象アカウントの表示名を既定値に戻す。
func (s *Service) ClearDisplayName(ctx context.Context, accountID string) error {
	if err := s.accountRepo.ClearDisplayName(ctx, accountID); err != nil {
		return fmt.Errorf("failed to clear display name: %w", err)
	}

	slog.Info("display name cleared", slog.String("account_id", accountID))
	return nil
}

// DeleteAccount は対象アカウントとその会話を削除する。
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.accountRepo.DeleteByID(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if err := s.convRepo.DeleteAllForAccount(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}

	slog.Info("account deleted by admin", slog.String("account_id", accountID))
	return nil
}

// ListReports は全通報を対象アカウント情報付きで返す。
func (s *Service) ListReports(ctx context.Context) ([]repository.ReportView, error) {
	views, err := s.reportRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return views, nil
}

// DeleteReport は処理済みの通報を削除する。
func (s *Service) DeleteReport(ctx context.Context, reportID string) error {
	if err := s.reportRepo.DeleteByID(ctx, reportID); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	slog.Info("report deleted", slog.String("report_id", reportID))
	return nil
}

// DailyStats は指定日の統計を返す。記録がない日はゼロ値の統計を返す。
func (s *Service) DailyStats(ctx context.Context, date time.Time) (*model.DailyStat, error) {
	stat, err := s.statRepo.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find stats: %w", err)
	}
	if stat == nil {
		stat = &model.DailyStat{Date: date}
	}
	return stat, nil
}

// PeriodSummary は期間集計の結果。
type PeriodSummary struct {
	Days   []*model.DailyStat
	Totals model.DailyStat
}

// PeriodStats は終了日からさかのぼって指定日数分の統計と合計を返す。
func (s *Service) PeriodStats(ctx context.Context, end time.Time, days int) (*PeriodSummary, error) {
	if days <= 0 {
		return nil, fmt.Errorf("period must be positive: %d", days)
	}

	start := end.AddDate(0, 0, -days)
	stats, err := s.statRepo.ListRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}

	summary := &PeriodSummary{
		Days:   stats,
		Totals: model.DailyStat{Date: end},
	}
	for _, d := range stats {
		summary.Totals.Signups += d.Signups
		summary.Totals.Logins += d.Logins
		summary.Totals.MessagesSent += d.MessagesSent
		summary.Totals.Searches += d.Searches
		summary.Totals.RootViews += d.RootViews
	}

	return summary, nil
}

// ReferrerStats は期間内の参照元別流入数をURL単位で合算し、流入数の多い順に返す。
func (s *Service) ReferrerStats(ctx context.Context, end time.Time, days int) ([]model.ReferrerCount, error) {
	if days <= 0 {
		return nil, fmt.Errorf("period must be positive: %d", days)
	}

	start := end.AddDate(0, 0, -days)
	stats, err := s.statRepo.ListRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}

	totals := make(map[string]int)
	for _, d := range stats {
		for _, r := range d.Referrers {
			totals[r.URL] += r.Count
		}
	}

	referrers := make([]model.ReferrerCount, 0, len(totals))
	for url, count := range totals {
		referrers = append(referrers, model.ReferrerCount{URL: url, Count: count})
	}
	sort.Slice(referrers, func(i, j int) bool {
		if referrers[i].Count != referrers[j].Count {
			return referrers[i].Count > referrers[j].Count
		}
		return referrers[i].URL < referrers[j].URL
	})

	return referrers, nil
}

// LocationData は座標を設定している全アカウントの位置一覧を返す。
func (s *Service) LocationData(ctx context.Context) ([]model.GeoPoint, error) {
	points, err := s.accountRepo.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return points, nil
}
