package util

import (
	"context"

	"github.com/Dafoe17/retail-platform-backend/internal/constants"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
)

func WithIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, constants.IdentityKey, id)
}

// GetIdentityFromContext 未登入時回傳 nil
func GetIdentityFromContext(ctx context.Context) *model.Identity {
	if v, ok := ctx.Value(constants.IdentityKey).(*model.Identity); ok {
		return v
	}
	return nil
}

func WithCartSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, constants.CartSessionKey, sessionID)
}

func GetCartSessionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.CartSessionKey).(string); ok {
		return v
	}
	return ""
}

func GetRequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return "unknown"
}

// CartOwnerFromContext 登入使用者優先, 否則用匿名 session
func CartOwnerFromContext(ctx context.Context) model.CartOwner {
	owner := model.CartOwner{SessionID: GetCartSessionFromContext(ctx)}
	if id := GetIdentityFromContext(ctx); id != nil {
		owner.UserID = id.UserID
	}
	return owner
}
