package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bandmatch/internal/model"
)

// errorResponse はエラーレスポンスのJSON構造。
// error はフィールド名から {種別: true} へのマップで、
// クライアント側のフォームバリデーション表示に対応する。
type errorResponse struct {
	Success bool                       `json:"success"`
	Error   map[string]map[string]bool `json:"error"`
}

// WriteAPIError はAPIErrorをJSONレスポンスとして書き込む。
// APIError以外のエラーは500として扱う。
func WriteAPIError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		WriteInternalServerError(w, err)
		return
	}

	writeFieldError(w, apiErr.Status, apiErr.Field, apiErr.Kind)
}

// WriteLoginAbsent は未認証リクエストへの401レスポンスを書き込む。
func WriteLoginAbsent(w http.ResponseWriter) {
	writeFieldError(w, http.StatusUnauthorized, "login", "absent")
}

// WriteInternalServerError は500エラーレスポンスを書き込む。
// 内部エラーの詳細はログにのみ出力し、レスポンスには含めない。
func WriteInternalServerError(w http.ResponseWriter, err error) {
	slog.Error("内部サーバーエラー", slog.String("error", err.Error()))
	writeFieldError(w, http.StatusInternalServerError, "server", "error")
}

func writeFieldError(w http.ResponseWriter, status int, field, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := errorResponse{
		Success: false,
		Error: map[string]map[string]bool{
			field: {kind: true},
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("エラーレスポンスの書き込みに失敗しました", slog.String("error", err.Error()))
	}
}
