// Package model はドメインモデルを定義する。
package model

import "time"

// SearchType はアカウントのマッチング目的を表す。
type SearchType string

const (
	// SearchTypeJoin は既存バンドへの加入を希望する。
	SearchTypeJoin SearchType = "Join"
	// SearchTypeForm は新規バンドの結成を希望する。
	SearchTypeForm SearchType = "Form"
	// SearchTypeEither は加入・結成のどちらでもよい。
	SearchTypeEither SearchType = "Either"
	// SearchTypeRecruit はメンバーの募集を希望する。
	SearchTypeRecruit SearchType = "Recruit"
)

// Valid は定義済みのSearchTypeかどうかを返す。
func (t SearchType) Valid() bool {
	switch t {
	case SearchTypeJoin, SearchTypeForm, SearchTypeEither, SearchTypeRecruit:
		return true
	}
	return false
}

// Description は検索タイプの説明文を返す。
func (t SearchType) Description() string {
	switch t {
	case SearchTypeJoin:
		return "Join an existing band"
	case SearchTypeForm:
		return "Form a new band"
	case SearchTypeEither:
		return "Either join or form a band"
	case SearchTypeRecruit:
		return "Recruit a band member"
	}
	return ""
}

// GeoPoint は経度・緯度の地理座標を表す。
type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

// Account はサービス利用アカウントを表す。
// メールアドレスは小文字で保存され、大文字小文字を区別せず一意。
type Account struct {
	ID             string
	Email          string
	DisplayName    string
	PasswordHash   string
	SearchType     SearchType
	Genres         []string
	Instruments    []string
	Location       GeoPoint
	SearchRadiusKm float64
	Description    string
	Active         bool
	Admin          bool
	EmailConfirmed bool

	// ConfirmToken はメールアドレス確認用のトークン。確認済みの場合は空。
	ConfirmToken string

	// ResetToken / ResetExpiresAt はパスワードリセット用のトークンと有効期限。
	// トークンは使い捨てで、消費成功と同一の更新で必ずクリアされる。
	ResetToken     string
	ResetExpiresAt *time.Time

	SignupAt    time.Time
	LastLoginAt time.Time
}

// MatchCandidate は検索結果として返すアカウントの公開プロジェクション。
// 永続化されず、検索評価時のみ生成される。
type MatchCandidate struct {
	ID             string
	DisplayName    string
	SearchType     SearchType
	FullSearchType string
	Genres         []string
	Instruments    []string
	Description    string
}
