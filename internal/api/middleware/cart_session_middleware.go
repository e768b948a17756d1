package middleware

import (
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/constants"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/google/uuid"
)

const maxCartSessionLength = 64

/*
CartSessionMiddleware 匿名購物車.
未登入且沒有帶 X-Cart-Session 時產生新的 session id, 一律回寫到 response header.
登入使用者不使用 session.
*/
func CartSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if util.GetIdentityFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		session := r.Header.Get(constants.CartSessionHeader)
		if session == "" || len(session) > maxCartSessionLength {
			session = uuid.New().String()
		}
		w.Header().Set(constants.CartSessionHeader, session)
		next.ServeHTTP(w, r.WithContext(util.WithCartSession(r.Context(), session)))
	})
}
