// Package stats は日次利用統計の記録を提供する。
// 記録はすべてベストエフォートであり、失敗しても呼び出し元の処理は継続する。
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/bandmatch/internal/metrics"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
)

// recordTimeout は統計書き込み1件あたりのタイムアウト。
const recordTimeout = 5 * time.Second

// Recorder は日次カウンターへの書き込みとPrometheusへのミラーを行う。
type Recorder struct {
	repo      repository.StatRepository
	collector metrics.MetricsCollector
}

// NewRecorder はRecorderを生成する。collectorはnilでもよい。
func NewRecorder(repo repository.StatRepository, collector metrics.MetricsCollector) *Recorder {
	return &Recorder{repo: repo, collector: collector}
}

// Record は指定フィールドの当日カウンターを増やす。
// 元のリクエストがキャンセルされても書き込みが失われないよう、
// 独立したコンテキストで実行する。失敗はログに残すのみ。
func (r *Recorder) Record(field model.StatField) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.repo.Increment(ctx, time.Now(), field); err != nil {
		slog.Warn("failed to record stat",
			slog.String("field", string(field)),
			slog.String("error", err.Error()),
		)
		return
	}

	if r.collector != nil {
		switch field {
		case model.StatSignups:
			r.collector.RecordSignup()
		case model.StatLogins:
			r.collector.RecordLogin()
		case model.StatMessagesSent:
			r.collector.RecordMessageSent()
		}
	}
}

// RecordReferrer は参照元URLの当日流入数を増やす。失敗はログに残すのみ。
func (r *Recorder) RecordReferrer(url string) {
	if url == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.repo.AddReferrer(ctx, time.Now(), url); err != nil {
		slog.Warn("failed to record referrer",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
}
