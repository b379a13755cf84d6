// Package match はバンドメンバーのマッチング検索を提供する。
package match

import (
	"context"
	"fmt"

	"github.com/hitoshi/bandmatch/internal/metrics"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
	"github.com/hitoshi/bandmatch/internal/stats"
)

// complementaryTypes は検索者の検索タイプに対して、候補として成立する
// 相手の検索タイプの対応表。
// 加入希望者には募集中のバンドが、結成希望者には結成希望者と
// どちらでも可の相手が対応する。この対応は対称ではない。
var complementaryTypes = map[model.SearchType][]model.SearchType{
	model.SearchTypeJoin:    {model.SearchTypeRecruit},
	model.SearchTypeForm:    {model.SearchTypeForm, model.SearchTypeEither},
	model.SearchTypeEither:  {model.SearchTypeForm, model.SearchTypeRecruit},
	model.SearchTypeRecruit: {model.SearchTypeJoin, model.SearchTypeEither},
}

// ComplementaryTypes は指定された検索タイプに対応する相手のタイプ集合を返す。
// 未定義のタイプには空のスライスを返す。
func ComplementaryTypes(t model.SearchType) []model.SearchType {
	types, ok := complementaryTypes[t]
	if !ok {
		return nil
	}

	out := make([]model.SearchType, len(types))
	copy(out, types)
	return out
}

// Service はマッチング検索のビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	recorder    *stats.Recorder
	collector   metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorはnilでもよい。
func NewService(accountRepo repository.AccountRepository, recorder *stats.Recorder, collector metrics.MetricsCollector) *Service {
	return &Service{accountRepo: accountRepo, recorder: recorder, collector: collector}
}

// Search は検索者のプロフィールに基づいてマッチ候補を返す。
// 候補の条件: アクティブ、検索者自身を除く、検索タイプが対応表に合致、
// 検索者の半径内、ジャンルと楽器がそれぞれ1つ以上重なる。
// 管理者以外の検索は統計に記録される。
func (s *Service) Search(ctx context.Context, seekerID string) ([]model.MatchCandidate, error) {
	seeker, err := s.accountRepo.FindByID(ctx, seekerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seeker: %w", err)
	}
	if seeker == nil {
		return nil, model.NewAccountNotFoundError()
	}

	types := ComplementaryTypes(seeker.SearchType)

	candidates, err := s.accountRepo.SearchMatches(ctx, seeker, types)
	if err != nil {
		return nil, fmt.Errorf("failed to search matches: %w", err)
	}

	if !seeker.Admin {
		s.recorder.Record(model.StatSearches)
	}
	if s.collector != nil {
		s.collector.RecordSearch(len(candidates))
	}

	return candidates, nil
}
