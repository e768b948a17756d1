package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/auth/token"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db/dbtest"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const testTokenKey = "abcdefghijklmnopqrstuvwxyz012345"

type AuthServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *db.Store
	maker   token.Maker
	service *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = dbtest.NewStore(suite.T())
	maker, err := token.NewPasetoMaker(testTokenKey)
	require.NoError(suite.T(), err)
	suite.maker = maker
	suite.service = NewAuthService(suite.store, maker, AuthConfig{
		AccessTokenDuration:  time.Minute,
		RefreshTokenDuration: time.Hour,
		BcryptCost:           bcrypt.MinCost,
	}, zerolog.Nop())
}

func (suite *AuthServiceTestSuite) register(email string) *model.User {
	user, err := suite.service.Register(suite.ctx, RegisterInput{Email: email, Password: "correct-horse", FirstName: "Grace"})
	require.NoError(suite.T(), err)
	return user
}

func (suite *AuthServiceTestSuite) TestRegister() {
	user := suite.register(" Grace@Example.com ")
	require.Equal(suite.T(), "grace@example.com", user.Email)
	require.Equal(suite.T(), model.RoleCustomer, user.Role)
	require.NotEqual(suite.T(), "correct-horse", user.PasswordHash)

	_, err := suite.service.Register(suite.ctx, RegisterInput{Email: "GRACE@example.com", Password: "another-one"})
	require.ErrorIs(suite.T(), err, apperr.ErrEmailTaken)

	_, err = suite.service.Register(suite.ctx, RegisterInput{Email: "not-an-email", Password: "long-enough"})
	require.ErrorIs(suite.T(), err, apperr.ErrValidation)

	_, err = suite.service.Register(suite.ctx, RegisterInput{Email: "short@example.com", Password: "short"})
	require.ErrorIs(suite.T(), err, apperr.ErrValidation)
}

func (suite *AuthServiceTestSuite) TestLoginAuthenticate() {
	user := suite.register("ada@example.com")

	_, err := suite.service.Login(suite.ctx, "ada@example.com", "wrong-password")
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)
	_, err = suite.service.Login(suite.ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)

	res, err := suite.service.Login(suite.ctx, "ADA@example.com", "correct-horse")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), user.ID, res.User.ID)
	require.NotNil(suite.T(), res.User.LastLoginAt)
	require.True(suite.T(), res.RefreshExpiresAt.After(res.AccessExpiresAt))

	identity, err := suite.service.Authenticate(suite.ctx, res.AccessToken)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), user.ID, identity.UserID)
	require.Equal(suite.T(), model.RoleCustomer, identity.Role)

	// refresh token 不能當 access token 用
	_, err = suite.service.Authenticate(suite.ctx, res.RefreshToken)
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)
	_, err = suite.service.Authenticate(suite.ctx, "")
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)

	stored, err := suite.store.GetUserByID(suite.ctx, user.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), stored.LastLoginAt)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_Expired() {
	user := suite.register("late@example.com")
	expired, _, err := suite.maker.CreateToken(user.ID, string(user.Role), token.AccessToken, -time.Second)
	require.NoError(suite.T(), err)

	_, err = suite.service.Authenticate(suite.ctx, expired)
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)
	require.ErrorIs(suite.T(), err, token.ErrExpiredToken)
}

func (suite *AuthServiceTestSuite) TestRefreshAndLogout() {
	suite.register("lin@example.com")
	res, err := suite.service.Login(suite.ctx, "lin@example.com", "correct-horse")
	require.NoError(suite.T(), err)

	refreshed, err := suite.service.Refresh(suite.ctx, res.RefreshToken)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), res.RefreshToken, refreshed.RefreshToken)
	_, err = suite.service.Authenticate(suite.ctx, refreshed.AccessToken)
	require.NoError(suite.T(), err)

	_, err = suite.service.Refresh(suite.ctx, res.AccessToken)
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)

	require.NoError(suite.T(), suite.service.Logout(suite.ctx, res.RefreshToken))
	require.NoError(suite.T(), suite.service.Logout(suite.ctx, res.RefreshToken))
	_, err = suite.service.Refresh(suite.ctx, res.RefreshToken)
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)
}

func (suite *AuthServiceTestSuite) TestRefresh_UnknownToken() {
	user := suite.register("ghost@example.com")
	// 簽得出來但從未登記在 db
	raw, _, err := suite.maker.CreateToken(user.ID, string(user.Role), token.RefreshToken, time.Hour)
	require.NoError(suite.T(), err)

	_, err = suite.service.Refresh(suite.ctx, raw)
	require.ErrorIs(suite.T(), err, apperr.ErrUnauthenticated)
}

func (suite *AuthServiceTestSuite) TestEnsureAdmin() {
	require.NoError(suite.T(), suite.service.EnsureAdmin(suite.ctx, "root@example.com", "super-secret"))
	require.NoError(suite.T(), suite.service.EnsureAdmin(suite.ctx, "root@example.com", "ignored-now"))

	admin, err := suite.store.GetUserByEmail(suite.ctx, "root@example.com")
	require.NoError(suite.T(), err)
	require.True(suite.T(), admin.IsAdmin())

	res, err := suite.service.Login(suite.ctx, "root@example.com", "super-secret")
	require.NoError(suite.T(), err)
	identity, err := suite.service.Authenticate(suite.ctx, res.AccessToken)
	require.NoError(suite.T(), err)
	require.True(suite.T(), identity.IsAdmin())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
