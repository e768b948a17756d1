package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/auth/token"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *model.User
}

type AuthConfig struct {
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	BcryptCost           int
}

type IAuthService interface {
	// Register 建立一般會員
	//
	// 錯誤:
	//   - ErrValidation 422: email 格式錯誤或密碼太短
	//   - ErrEmailTaken 409: email 已被註冊
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	// Login 驗證帳密, 發出 access token 與 refresh token
	//
	// 錯誤:
	//   - ErrUnauthenticated 401: 帳號不存在, 已停用或密碼錯誤 (不區分原因)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Refresh 以 refresh token 換新的 access token, refresh token 本身不變
	//
	// 錯誤:
	//   - ErrUnauthenticated 401: token 無效, 過期, 已撤銷, 或使用者已停用
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	// Logout 撤銷 refresh token, 重複登出不會報錯
	//
	// 錯誤:
	//   - ErrUnauthenticated 401: token 無效
	Logout(ctx context.Context, refreshToken string) error
	// Authenticate 驗證 access token, 回傳呼叫者身分
	//
	// 錯誤:
	//   - ErrUnauthenticated 401
	Authenticate(ctx context.Context, accessToken string) (*model.Identity, error)
	Me(ctx context.Context, userID int64) (*model.User, error)
	// EnsureAdmin 啟動時建立管理員帳號, 已存在則略過
	EnsureAdmin(ctx context.Context, email, password string) error
}

type AuthService struct {
	store      db.IStore
	tokenMaker token.Maker
	validate   *validator.Validate
	cfg        AuthConfig
	logger     zerolog.Logger
}

var _ IAuthService = (*AuthService)(nil)

func NewAuthService(store db.IStore, tokenMaker token.Maker, cfg AuthConfig, logger zerolog.Logger) *AuthService {
	if util.IsNil(store) {
		panic("auth service initialization failed: store cannot be nil")
	}
	if util.IsNil(tokenMaker) {
		panic("auth service initialization failed: tokenMaker cannot be nil")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      store,
		tokenMaker: tokenMaker,
		validate:   validator.New(),
		cfg:        cfg,
		logger:     logger,
	}
}

func (a *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	return a.createUser(ctx, input, model.RoleCustomer)
}

func (a *AuthService) createUser(ctx context.Context, input RegisterInput, role model.Role) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := a.validate.Var(email, "required,email,max=255"); err != nil {
		return nil, apperr.ErrValidation.WithMessage("invalid email")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperr.ErrValidation.WithMessage("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), a.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.ErrInternal.Wrap(err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		IsActive:     true,
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	a.logger.Info().Int64("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return user, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := a.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperr.ErrUserNotFound) {
		return nil, apperr.ErrUnauthenticated.WithMessage("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrUnauthenticated.WithMessage("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrUnauthenticated.WithMessage("invalid email or password")
	}

	refreshToken, refreshPayload, err := a.tokenMaker.CreateToken(user.ID, string(user.Role), token.RefreshToken, a.cfg.RefreshTokenDuration)
	if err != nil {
		return nil, apperr.ErrInternal.Wrap(err)
	}
	accessToken, accessPayload, err := a.tokenMaker.CreateToken(user.ID, string(user.Role), token.AccessToken, a.cfg.AccessTokenDuration)
	if err != nil {
		return nil, apperr.ErrInternal.Wrap(err)
	}

	now := time.Now().UTC()
	err = a.store.ExecTx(ctx, func(tx db.IStore) error {
		err := tx.CreateRefreshToken(ctx, &model.RefreshToken{
			ID:        refreshPayload.ID,
			UserID:    user.ID,
			ExpiresAt: refreshPayload.ExpiredAt,
		})
		if err != nil {
			return err
		}
		return tx.UpdateLastLogin(ctx, user.ID, now)
	})
	if err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	return &LoginResult{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessPayload.ExpiredAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshPayload.ExpiredAt,
		User:             user,
	}, nil
}

func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	payload, err := a.verify(refreshToken, token.RefreshToken)
	if err != nil {
		return nil, err
	}
	stored, err := a.store.GetRefreshToken(ctx, payload.ID)
	if err != nil {
		return nil, err
	}
	if !stored.Usable(time.Now()) || stored.UserID != payload.UserID {
		return nil, apperr.ErrUnauthenticated.WithMessage("refresh token revoked or expired")
	}
	user, err := a.store.GetUserByID(ctx, payload.UserID)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrUnauthenticated.WithMessage("user is disabled")
	}

	// role 以 db 為準, 中途被改權限時新 token 會反映
	accessToken, accessPayload, err := a.tokenMaker.CreateToken(user.ID, string(user.Role), token.AccessToken, a.cfg.AccessTokenDuration)
	if err != nil {
		return nil, apperr.ErrInternal.Wrap(err)
	}
	return &LoginResult{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessPayload.ExpiredAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: stored.ExpiresAt,
		User:             user,
	}, nil
}

func (a *AuthService) Logout(ctx context.Context, refreshToken string) error {
	payload, err := a.verify(refreshToken, token.RefreshToken)
	if errors.Is(err, token.ErrExpiredToken) {
		return nil
	}
	if err != nil {
		return err
	}
	return a.store.RevokeRefreshToken(ctx, payload.ID, time.Now().UTC())
}

func (a *AuthService) Authenticate(_ context.Context, accessToken string) (*model.Identity, error) {
	payload, err := a.verify(accessToken, token.AccessToken)
	if err != nil {
		return nil, err
	}
	return &model.Identity{UserID: payload.UserID, Role: model.Role(payload.Role)}, nil
}

func (a *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	return a.store.GetUserByID(ctx, userID)
}

func (a *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := a.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrUserNotFound) {
		return err
	}
	_, err = a.createUser(ctx, RegisterInput{Email: email, Password: password, FirstName: "Admin"}, model.RoleAdmin)
	if errors.Is(err, apperr.ErrEmailTaken) {
		return nil
	}
	return err
}

// verify 回傳的錯誤一律是 ErrUnauthenticated, 過期時另外包住 token.ErrExpiredToken
func (a *AuthService) verify(raw string, typ token.TokenType) (*token.Payload, error) {
	if raw == "" {
		return nil, apperr.ErrUnauthenticated
	}
	payload, err := a.tokenMaker.VerifyToken(raw)
	if errors.Is(err, token.ErrExpiredToken) {
		return nil, apperr.ErrUnauthenticated.WithMessage("token has expired").Wrap(err)
	}
	if err != nil {
		return nil, apperr.ErrUnauthenticated.Wrap(err)
	}
	if payload.Type != typ {
		return nil, apperr.ErrUnauthenticated.WithMessage("wrong token type")
	}
	return payload, nil
}
