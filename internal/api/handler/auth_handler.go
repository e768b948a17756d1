package handler

import (
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/api/dto"
	"github.com/Dafoe17/retail-platform-backend/internal/service"
)

type AuthHandler struct {
	authService service.IAuthService
}

func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
	}
}

// Register POST /auth/register
func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.authService.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.CreatedJSON(w, convertUserModelToDTO(user))
}

// Login POST /auth/login
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := a.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	api.SuccessJSON(w, dto.LoginResponse{
		AccessToken: dto.TokenInfo{
			Value:     res.AccessToken,
			ExpiresAt: res.AccessExpiresAt,
		},
		RefreshToken: &dto.TokenInfo{
			Value:     res.RefreshToken,
			ExpiresAt: res.RefreshExpiresAt,
		},
		User: convertUserModelToDTO(res.User),
	})
}

// Refresh POST /auth/refresh, 只換 access token
func (a *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := a.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, dto.LoginResponse{
		AccessToken: dto.TokenInfo{
			Value:     res.AccessToken,
			ExpiresAt: res.AccessExpiresAt,
		},
		User: convertUserModelToDTO(res.User),
	})
}

// Logout POST /auth/logout
func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.NoContent(w)
}

// Me GET /auth/me
func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	user, err := a.authService.Me(r.Context(), id.UserID)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertUserModelToDTO(user))
}
