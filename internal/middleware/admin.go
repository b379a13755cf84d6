package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/bandmatch/internal/model"
)

// AccountFinder は管理者判定に必要なアカウント取得のインターフェース。
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// NewAdminMiddleware は管理者のみアクセス可能にするミドルウェアを返す。
// 管理者でない場合は管理画面の存在を隠すため404を返す。
// 認証ミドルウェアの後段に配置すること。
func NewAdminMiddleware(finder AccountFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := AccountIDFromContext(r.Context())
			if err != nil {
				http.NotFound(w, r)
				return
			}

			account, err := finder.FindByID(r.Context(), accountID)
			if err != nil {
				WriteInternalServerError(w, err)
				return
			}
			if account == nil || !account.Admin {
				http.NotFound(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
