package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// レスポンスでは error: { <field>: { <kind>: true } } の形に展開される。
type APIError struct {
	Field   string // エラーの対象フィールド: email, password, name, token, consent, login, ...
	Kind    string // エラーの種類: invalid, mismatch, incorrect, inUse, missing, expired, absent, ...
	Status  int    // HTTPステータスコード
	Message string // ログ用メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s.%s] %s", e.Field, e.Kind, e.Message)
}

// 定義済みフィールド・種類
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldName         = "name"
	FieldConsent      = "consent"
	FieldToken        = "token"
	FieldLogin        = "login"
	FieldRecipient    = "recipient"
	FieldMessage      = "messageContent"
	FieldConversation = "conversation"
	FieldReport       = "report"
	FieldProfile      = "profile"
	FieldAccount      = "account"

	KindInvalid      = "invalid"
	KindInUse        = "inUse"
	KindMissing      = "missing"
	KindMismatch     = "mismatch"
	KindIncorrect    = "incorrect"
	KindExpired      = "expired"
	KindAbsent       = "absent"
	KindUnauthorized = "unauthorized"
	KindNotFound     = "notFound"
)

// NewConsentMissingError は利用規約への同意がない場合のエラーを生成する。
func NewConsentMissingError() *APIError {
	return &APIError{
		Field:   FieldConsent,
		Kind:    KindMissing,
		Status:  http.StatusBadRequest,
		Message: "利用規約への同意が必要です。",
	}
}

// NewEmailInvalidError はメールアドレスが無効な場合のエラーを生成する。
// ログインでは未登録メールアドレス、登録では長さ超過に対して返す。
func NewEmailInvalidError() *APIError {
	return &APIError{
		Field:   FieldEmail,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "メールアドレスが無効です。",
	}
}

// NewEmailInUseError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailInUseError() *APIError {
	return &APIError{
		Field:   FieldEmail,
		Kind:    KindInUse,
		Status:  http.StatusBadRequest,
		Message: "このメールアドレスは既に使用されています。",
	}
}

// NewEmailMissingError はメールアドレスが未指定の場合のエラーを生成する。
func NewEmailMissingError() *APIError {
	return &APIError{
		Field:   FieldEmail,
		Kind:    KindMissing,
		Status:  http.StatusBadRequest,
		Message: "メールアドレスが指定されていません。",
	}
}

// NewNameInvalidError は表示名が無効な場合のエラーを生成する。
func NewNameInvalidError() *APIError {
	return &APIError{
		Field:   FieldName,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "表示名は16文字以内で指定してください。",
	}
}

// NewPasswordMismatchError はパスワードと確認用パスワードが一致しない場合のエラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Field:   FieldPassword,
		Kind:    KindMismatch,
		Status:  http.StatusBadRequest,
		Message: "パスワードと確認用パスワードが一致しません。",
	}
}

// NewPasswordInvalidError はパスワードが要件を満たさない場合のエラーを生成する。
func NewPasswordInvalidError() *APIError {
	return &APIError{
		Field:   FieldPassword,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "パスワードは8文字以上で指定してください。",
	}
}

// NewPasswordIncorrectError はパスワードが一致しない場合のエラーを生成する。
func NewPasswordIncorrectError() *APIError {
	return &APIError{
		Field:   FieldPassword,
		Kind:    KindIncorrect,
		Status:  http.StatusBadRequest,
		Message: "パスワードが正しくありません。",
	}
}

// NewPasswordMissingError はパスワードが未指定の場合のエラーを生成する。
func NewPasswordMissingError() *APIError {
	return &APIError{
		Field:   FieldPassword,
		Kind:    KindMissing,
		Status:  http.StatusBadRequest,
		Message: "パスワードが指定されていません。",
	}
}

// NewTokenInvalidError はトークンが存在しない・消費済みの場合のエラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Field:   FieldToken,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "トークンが無効です。",
	}
}

// NewTokenExpiredError はトークンの有効期限が切れている場合のエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Field:   FieldToken,
		Kind:    KindExpired,
		Status:  http.StatusBadRequest,
		Message: "トークンの有効期限が切れています。",
	}
}

// NewLoginAbsentError は認証されていないリクエストに対するエラーを生成する。
func NewLoginAbsentError() *APIError {
	return &APIError{
		Field:   FieldLogin,
		Kind:    KindAbsent,
		Status:  http.StatusUnauthorized,
		Message: "認証が必要です。",
	}
}

// NewAccountNotFoundError はアカウントが見つからない場合のエラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Field:   FieldAccount,
		Kind:    KindNotFound,
		Status:  http.StatusBadRequest,
		Message: "アカウントが見つかりません。",
	}
}

// NewRecipientInvalidError はメッセージの宛先が無効な場合のエラーを生成する。
func NewRecipientInvalidError() *APIError {
	return &APIError{
		Field:   FieldRecipient,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "宛先が無効です。",
	}
}

// NewMessageMissingError はメッセージ本文が空の場合のエラーを生成する。
func NewMessageMissingError() *APIError {
	return &APIError{
		Field:   FieldMessage,
		Kind:    KindMissing,
		Status:  http.StatusBadRequest,
		Message: "メッセージ本文が指定されていません。",
	}
}

// NewMessageInvalidError はメッセージ本文が要件を満たさない場合のエラーを生成する。
func NewMessageInvalidError() *APIError {
	return &APIError{
		Field:   FieldMessage,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "メッセージ本文は1024文字以内で指定してください。",
	}
}

// NewConversationInvalidError は会話IDが無効な場合のエラーを生成する。
func NewConversationInvalidError() *APIError {
	return &APIError{
		Field:   FieldConversation,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "会話が見つかりません。",
	}
}

// NewConversationUnauthorizedError は会話の参加者でないアカウントからの
// アクセスに対するエラーを生成する。
func NewConversationUnauthorizedError() *APIError {
	return &APIError{
		Field:   FieldConversation,
		Kind:    KindUnauthorized,
		Status:  http.StatusUnauthorized,
		Message: "この会話を閲覧する権限がありません。",
	}
}

// NewReportInvalidError は通報内容が無効な場合のエラーを生成する。
func NewReportInvalidError() *APIError {
	return &APIError{
		Field:   FieldReport,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: "通報内容が無効です。",
	}
}

// NewProfileInvalidError はプロフィールの更新内容が無効な場合のエラーを生成する。
func NewProfileInvalidError(reason string) *APIError {
	return &APIError{
		Field:   FieldProfile,
		Kind:    KindInvalid,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("プロフィールの更新内容が無効です: %s", reason),
	}
}
