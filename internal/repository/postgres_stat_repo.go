package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/bandmatch/internal/model"
)

// PostgresStatRepo はPostgreSQLを使用した日次統計リポジトリ。
// カウンターはdaily_stats、参照元別の流入数はstat_referrersに保持する。
type PostgresStatRepo struct {
	db *sql.DB
}

// NewPostgresStatRepo はPostgresStatRepoを生成する。
func NewPostgresStatRepo(db *sql.DB) *PostgresStatRepo {
	return &PostgresStatRepo{db: db}
}

// normalizeDate は日付をUTCの0時に正規化する。
func normalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Increment は指定日のカウンターを1増やす。行が存在しない場合は新規作成する。
func (r *PostgresStatRepo) Increment(ctx context.Context, date time.Time, field model.StatField) error {
	if !field.Valid() {
		return fmt.Errorf("未定義の統計フィールドです: %s", field)
	}

	// fieldはValid()で検証済みの固定集合なので、列名としての埋め込みは安全
	query := fmt.Sprintf(
		`INSERT INTO daily_stats (date, %s) VALUES ($1, 1)
		 ON CONFLICT (date) DO UPDATE SET %s = daily_stats.%s + 1`,
		field, field, field)

	_, err := r.db.ExecContext(ctx, query, normalizeDate(date))
	if err != nil {
		return fmt.Errorf("統計カウンターの更新に失敗しました: %w", err)
	}
	return nil
}

// AddReferrer は指定日の参照元URLの流入数を1増やす。
func (r *PostgresStatRepo) AddReferrer(ctx context.Context, date time.Time, url string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stat_referrers (date, url, count) VALUES ($1, $2, 1)
		 ON CONFLICT (date, url) DO UPDATE SET count = stat_referrers.count + 1`,
		normalizeDate(date), url,
	)
	if err != nil {
		return fmt.Errorf("参照元統計の更新に失敗しました: %w", err)
	}
	return nil
}

// FindByDate は指定日の統計を参照元情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresStatRepo) FindByDate(ctx context.Context, date time.Time) (*model.DailyStat, error) {
	day := normalizeDate(date)

	s := &model.DailyStat{}
	err := r.db.QueryRowContext(ctx,
		`SELECT date, signups, logins, messages_sent, searches, root_views
		 FROM daily_stats WHERE date = $1`, day).
		Scan(&s.Date, &s.Signups, &s.Logins, &s.MessagesSent, &s.Searches, &s.RootViews)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("日次統計の取得に失敗しました: %w", err)
	}

	referrers, err := r.listReferrers(ctx, day)
	if err != nil {
		return nil, err
	}
	s.Referrers = referrers

	return s, nil
}

// ListRange は期間内（start < date <= end）の統計を日付順に返す。
func (r *PostgresStatRepo) ListRange(ctx context.Context, start, end time.Time) ([]*model.DailyStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, signups, logins, messages_sent, searches, root_views
		 FROM daily_stats
		 WHERE date > $1 AND date <= $2
		 ORDER BY date ASC`,
		normalizeDate(start), normalizeDate(end),
	)
	if err != nil {
		return nil, fmt.Errorf("統計一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var stats []*model.DailyStat
	for rows.Next() {
		s := &model.DailyStat{}
		if err := rows.Scan(&s.Date, &s.Signups, &s.Logins,
			&s.MessagesSent, &s.Searches, &s.RootViews); err != nil {
			return nil, fmt.Errorf("統計行の読み取りに失敗しました: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("統計一覧の走査に失敗しました: %w", err)
	}

	for _, s := range stats {
		referrers, err := r.listReferrers(ctx, s.Date)
		if err != nil {
			return nil, err
		}
		s.Referrers = referrers
	}

	return stats, nil
}

// listReferrers は指定日の参照元別流入数を流入数の多い順に返す。
func (r *PostgresStatRepo) listReferrers(ctx context.Context, day time.Time) ([]model.ReferrerCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT url, count FROM stat_referrers
		 WHERE date = $1 ORDER BY count DESC, url ASC`, day)
	if err != nil {
		return nil, fmt.Errorf("参照元統計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var referrers []model.ReferrerCount
	for rows.Next() {
		var rc model.ReferrerCount
		if err := rows.Scan(&rc.URL, &rc.Count); err != nil {
			return nil, fmt.Errorf("参照元統計の読み取りに失敗しました: %w", err)
		}
		referrers = append(referrers, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("参照元統計の走査に失敗しました: %w", err)
	}

	return referrers, nil
}

// compile-time interface check
var _ StatRepository = (*PostgresStatRepo)(nil)
