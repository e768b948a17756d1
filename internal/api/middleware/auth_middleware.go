package middleware

import (
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
)

// 驗證ctx是否有登入身分
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if util.GetIdentityFromContext(r.Context()) == nil {
			api.ErrorJSON(w, r, apperr.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware 未登入 401, 非管理員 403
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := util.GetIdentityFromContext(r.Context())
		if id == nil {
			api.ErrorJSON(w, r, apperr.ErrUnauthenticated)
			return
		}
		if !id.IsAdmin() {
			api.ErrorJSON(w, r, apperr.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
