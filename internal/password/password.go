// Package password はパスワードのハッシュ化と検証を提供する。
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost はbcryptのコストパラメータ。
// 変更すると既存ユーザーのログインはできなくなる訳ではないが、
// 新規ハッシュの計算コストが変わる。
const hashCost = 10

// ErrHashing はハッシュ計算または不正なダイジェスト入力による内部エラーを表す。
var ErrHashing = errors.New("password: hashing failed")

// Hash は平文パスワードをソルト付きハッシュに変換する。
// ソルトは呼び出しごとにランダムに生成されるため、同じ平文でも
// 毎回異なるダイジェストが返る。
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(digest), nil
}

// Verify は平文パスワードがダイジェストと一致するかどうかを返す。
// パスワード不一致はエラーではなくfalseを返す。
// ダイジェストが不正な形式の場合のみエラーを返す。
func Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrHashing, err)
}
