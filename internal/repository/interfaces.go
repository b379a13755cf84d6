// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/bandmatch/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByEmail は小文字化済みメールアドレスでアカウントを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// FindByResetToken はパスワードリセットトークンでアカウントを検索する。
	// 見つからない場合はnilを返す。
	FindByResetToken(ctx context.Context, resetToken string) (*model.Account, error)

	// Create はアカウントを作成する。
	Create(ctx context.Context, account *model.Account) error

	// UpdateProfile はプロフィール項目（表示名、メール、ジャンル、楽器、
	// 検索タイプ、説明、半径、座標、activeフラグ）を更新する。
	UpdateProfile(ctx context.Context, account *model.Account) error

	// UpdatePasswordHash はパスワードハッシュのみを更新する。
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// SetResetToken はリセットトークンと有効期限を設定する。
	SetResetToken(ctx context.Context, id, resetToken string, expiresAt time.Time) error

	// ConsumeResetToken は新しいパスワードハッシュを保存し、同一の更新内で
	// リセットトークンと有効期限をクリアする。トークンの再利用を防ぐため
	// 1つのUPDATEで実行される。
	ConsumeResetToken(ctx context.Context, id, passwordHash string) error

	// ConfirmEmail は確認トークンが一致する場合にメール確認済みフラグを立て、
	// トークンをクリアする。一致した場合はtrueを返す。
	ConfirmEmail(ctx context.Context, id, confirmToken string) (bool, error)

	// UpdateLastLogin は最終ログイン日時を更新する。
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// DeleteByID は指定IDのアカウントを削除する。
	DeleteByID(ctx context.Context, id string) error

	// SearchMatches は検索者の条件に合致する候補を取得する。
	// 条件: active、検索者以外、検索タイプが指定の集合に含まれる、
	// 検索者の半径（km）以内、ジャンルと楽器がそれぞれ1つ以上重なる。
	SearchMatches(ctx context.Context, seeker *model.Account, types []model.SearchType) ([]model.MatchCandidate, error)

	// SearchByNameOrEmail は表示名またはメールアドレスの部分一致で
	// アカウントを検索する。excludeIDのアカウントは除外する。
	SearchByNameOrEmail(ctx context.Context, query, excludeID string) ([]AccountSummary, error)

	// SetAdmin は管理者フラグを設定する。
	SetAdmin(ctx context.Context, id string, admin bool) error

	// ClearDescription は説明文を空にする。
	ClearDescription(ctx context.Context, id string) error

	// ClearDisplayName は表示名を既定値に置き換える。
	ClearDisplayName(ctx context.Context, id string) error

	// ListLocations は座標が設定されている（原点以外の）全アカウントの
	// 座標を返す。
	ListLocations(ctx context.Context) ([]model.GeoPoint, error)
}

// ConversationRepository は会話データの永続化インターフェース。
type ConversationRepository interface {
	// FindByID は指定IDの会話を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Conversation, error)

	// FindOrCreate は2アカウント間の会話を取得し、存在しない場合は作成する。
	// 参加者の順序は区別しない。
	FindOrCreate(ctx context.Context, accountA, accountB string) (*model.Conversation, error)

	// ListByAccount は指定アカウントが参加する会話の一覧を、参加者の表示名と
	// 最終メッセージ付きで新しい順に返す。
	ListByAccount(ctx context.Context, accountID string) ([]ConversationSummary, error)

	// SetLastMessage は会話の最終メッセージを更新する。
	SetLastMessage(ctx context.Context, conversationID, messageID string) error

	// DeleteByID は会話とそのメッセージを同一トランザクションで削除する。
	DeleteByID(ctx context.Context, conversationID string) error

	// DeleteAllForAccount は指定アカウントが参加する全会話とメッセージを削除する。
	DeleteAllForAccount(ctx context.Context, accountID string) error
}

// MessageRepository はメッセージデータの永続化インターフェース。
type MessageRepository interface {
	// Create はメッセージを作成する。
	Create(ctx context.Context, message *model.Message) error

	// ListByConversation は会話内のメッセージを送信者の表示名付きで
	// 送信日時順に返す。
	ListByConversation(ctx context.Context, conversationID string) ([]MessageWithSender, error)

	// MarkRead は指定メッセージを既読にする。送信者自身による既読化は
	// 無視される（受信者のみが既読にできる）。
	MarkRead(ctx context.Context, messageID, readerID string) error

	// CountUnread は最終メッセージが未読かつ自分以外から送信された
	// 会話の数を返す。
	CountUnread(ctx context.Context, accountID string) (int, error)
}

// ReportRepository は通報データの永続化インターフェース。
type ReportRepository interface {
	// Create は通報を作成する。
	Create(ctx context.Context, report *model.Report) error

	// List は全通報を通報対象アカウントの情報付きで返す。
	List(ctx context.Context) ([]ReportView, error)

	// DeleteByID は指定IDの通報を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// StatRepository は日次統計の永続化インターフェース。
type StatRepository interface {
	// Increment は指定日のカウンターを1増やす。行が存在しない場合はUPSERTする。
	Increment(ctx context.Context, date time.Time, field model.StatField) error

	// AddReferrer は指定日の参照元URLの流入数を1増やす。
	AddReferrer(ctx context.Context, date time.Time, url string) error

	// FindByDate は指定日の統計を取得する。見つからない場合はnilを返す。
	FindByDate(ctx context.Context, date time.Time) (*model.DailyStat, error)

	// ListRange は期間内（start < date <= end）の統計を日付順に返す。
	ListRange(ctx context.Context, start, end time.Time) ([]*model.DailyStat, error)
}

// Participant は会話参加者の公開情報。
type Participant struct {
	ID          string
	DisplayName string
}

// ConversationSummary は会話一覧表示用に参加者情報と最終メッセージを
// 結合した構造体。
type ConversationSummary struct {
	ID           string
	Participants []Participant
	LastMessage  *model.Message
}

// MessageWithSender はメッセージと送信者の表示名を結合した構造体。
type MessageWithSender struct {
	model.Message
	SenderName string
}

// AccountSummary は管理画面の検索結果用のアカウント要約。
type AccountSummary struct {
	ID          string
	DisplayName string
	Email       string
}

// ReportView は通報と通報対象の情報を結合した構造体。
type ReportView struct {
	model.Report
	ReportedAccount *AccountSummary
}
