package middleware

import (
	"net/http"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/rs/zerolog"
)

type StatusRecoder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecoder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecoder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *StatusRecoder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *StatusRecoder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

/*
LoggerMiddleware 記錄 request 請求, 需放在 AuthPayloadMiddleware 之後才拿得到 user_id.
帶 request_id 的 logger 會放進 context, 後續 handler 以 log.Ctx 取用.
*/
func LoggerMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recoder := &StatusRecoder{ResponseWriter: w}

			reqLogger := logger.With().Str("request_id", util.GetRequestIDFromContext(r.Context())).Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			next.ServeHTTP(recoder, r)

			var userID int64
			if id := util.GetIdentityFromContext(r.Context()); id != nil {
				userID = id.UserID
			}

			event := reqLogger.Info()
			if recoder.Status() >= http.StatusInternalServerError {
				event = reqLogger.Error()
			}
			event.
				Int64("user_id", userID).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", recoder.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
