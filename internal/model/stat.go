package model

import "time"

// StatField は日次カウンターのフィールド名を表す。
type StatField string

const (
	// StatSignups は新規登録数。
	StatSignups StatField = "signups"
	// StatLogins はログイン数。
	StatLogins StatField = "logins"
	// StatMessagesSent は送信メッセージ数。
	StatMessagesSent StatField = "messages_sent"
	// StatSearches は実行された検索数。
	StatSearches StatField = "searches"
	// StatRootViews はトップページの閲覧数。
	StatRootViews StatField = "root_views"
)

// Valid は定義済みのStatFieldかどうかを返す。
func (f StatField) Valid() bool {
	switch f {
	case StatSignups, StatLogins, StatMessagesSent, StatSearches, StatRootViews:
		return true
	}
	return false
}

// ReferrerCount は参照元URLごとの流入数を表す。
type ReferrerCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// DailyStat は1日分の利用統計を表す。
// 日付はUTCの0時に正規化して保存する。
type DailyStat struct {
	Date         time.Time
	Signups      int
	Logins       int
	MessagesSent int
	Searches     int
	RootViews    int
	Referrers    []ReferrerCount
}

// Rejections はログインも登録もしなかった閲覧数を返す。
func (s *DailyStat) Rejections() int {
	return s.RootViews - s.Logins - s.Signups
}

// ConversionRate は未ログイン閲覧に対する登録の割合を返す。
// 分母が0の場合は0を返す。
func (s *DailyStat) ConversionRate() float64 {
	denom := s.RootViews - s.Logins
	if denom == 0 {
		return 0
	}
	return float64(s.Signups) / float64(denom)
}
