// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー入力テキスト（プロフィールの説明文、
// メッセージ本文）をサニタイズし、XSS攻撃などのセキュリティリスクから
// ユーザーを保護する。bluemondayライブラリの厳格ポリシーを使用し、
// HTMLタグをすべて除去してプレーンテキストのみを保存する。
package security

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー入力テキストのサニタイズ機能の
// インターフェースを定義する。保存前のプロフィール説明文と
// メッセージ本文に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力テキストからHTMLタグをすべて除去し、
	// 前後の空白をトリムして返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// CleanTag はジャンル・楽器名のタグを正規化する。
	// 小文字化し、英字と空白以外の文字を除去してトリムする。
	CleanTag(raw string) string

	// CleanTags は複数のタグを正規化し、空になったものを除外して返す。
	CleanTags(raws []string) []string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ユーザー入力はHTMLとして表示しないため、タグを一切許可しない
// StrictPolicyを使用する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLタグをすべて除去して返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// CleanTag はタグ文字列を小文字化し、英字と空白文字以外を除去する。
// タブや改行も空白文字として残し、前後の空白はまとめて取り除く。
func (s *contentSanitizer) CleanTag(raw string) string {
	lowered := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// CleanTags は複数のタグを正規化し、空になったものを除外して返す。
func (s *contentSanitizer) CleanTags(raws []string) []string {
	cleaned := make([]string, 0, len(raws))
	for _, raw := range raws {
		if tag := s.CleanTag(raw); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
