package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Ctx(r.Context()).Error().
					Str("panic", fmt.Sprintf("%v", rec)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				api.WriteJSON(w, http.StatusInternalServerError, api.ResponseError{Error: api.ErrorBody{
					Code:    apperr.ErrInternal.Code,
					Message: apperr.ErrInternal.Message,
				}})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
