// Package token はメール確認・パスワードリセット用の
// 不透明トークンの発行と期限判定を提供する。
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// DefaultLength は発行されるトークンの文字数。
const DefaultLength = 32

// New はURLセーフな暗号論的ランダムトークンをDefaultLengthの長さで生成する。
func New() (string, error) {
	return NewWithLength(DefaultLength)
}

// NewWithLength は指定された文字数のURLセーフなランダムトークンを生成する。
func NewWithLength(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token: invalid length %d", length)
	}

	// base64url 1文字あたり6ビットなので、必要分より多めに読み込み切り詰める
	raw := make([]byte, (length*6+7)/8+1)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("token: failed to read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}

// Reset はパスワードリセット用に発行されたトークンと絶対有効期限の組を表す。
type Reset struct {
	Token     string
	ExpiresAt time.Time
}

// IssueReset はリセットトークンと有効期限（現在時刻 + ttl）を発行する。
// トークンは使い捨てで、消費成功時に呼び出し側が同一の更新内で
// 保存済みのトークンと期限をクリアする必要がある。
func IssueReset(ttl time.Duration) (*Reset, error) {
	t, err := New()
	if err != nil {
		return nil, err
	}
	return &Reset{
		Token:     t,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// IsExpired は有効期限切れかどうかを返す。比較は厳密（now > expiresAt）。
func IsExpired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}
