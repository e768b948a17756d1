package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/ratelimit"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/rs/zerolog/log"
)

// rateLimitKey 登入者以 user id 計, 其餘以來源 IP 計
func rateLimitKey(r *http.Request) string {
	if id := util.GetIdentityFromContext(r.Context()); id != nil {
		return "user:" + strconv.FormatInt(id.UserID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// NewRateLimitMiddleware limiter 出錯時放行並記錄
func NewRateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "1")
				api.ErrorJSON(w, r, api.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
