// Package handler はHTTP APIのハンドラー層を提供する。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bandmatch/internal/middleware"
)

// writeJSON はペイロードをJSONレスポンスとして書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", slog.String("error", err.Error()))
	}
}

// writeSuccess は {success: true} のみのレスポンスを書き込む。
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleServiceError はサービス層から返されたエラーをレスポンスに変換する。
// APIErrorはフィールド・種別付きのエラーボディに、それ以外は500になる。
func handleServiceError(w http.ResponseWriter, err error) {
	middleware.WriteAPIError(w, err)
}

// decodeBody はリクエストボディのJSONをデコードする。
// 失敗した場合は400を書き込みfalseを返す。
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   map[string]map[string]bool{"body": {"invalid": true}},
		})
		return false
	}
	return true
}

// requireAccountID はコンテキストから認証済みアカウントIDを取り出す。
// 取得できない場合は401を書き込み空文字を返す。
func requireAccountID(w http.ResponseWriter, r *http.Request) string {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		middleware.WriteLoginAbsent(w)
		return ""
	}
	return accountID
}
