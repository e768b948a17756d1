package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dafoe17/retail-platform-backend/internal/constants"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.Identity, error)
}

// 驗證token 但若token以任何錯誤 都不會中斷，這裡僅做解析, 若token有錯誤，則不會設置context
func AuthPayloadMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := checkAuthPayload(auth, r)
			if ok {
				next.ServeHTTP(w, r.WithContext(util.WithIdentity(r.Context(), identity)))
			} else {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func checkAuthPayload(auth Authenticator, r *http.Request) (*model.Identity, bool) {
	authorizationHeader := r.Header.Get(string(constants.AuthorizationHeaderKey))
	if len(authorizationHeader) == 0 {
		return nil, false
	}

	fields := strings.Fields(authorizationHeader)
	if len(fields) < 2 {
		return nil, false
	}

	authorizationType := strings.ToLower(fields[0])
	if authorizationType != string(constants.AuthorizationTypeBearer) {
		return nil, false
	}

	identity, err := auth.Authenticate(r.Context(), fields[1])
	if err != nil {
		return nil, false
	}
	return identity, true
}
