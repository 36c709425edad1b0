package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/auth"
	"github.com/tiller/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "tiller-test",
	})
}

func newAuthFixture() (*AuthService, *MockUserRepository, *auth.InMemoryTokenBlacklist) {
	repo := new(MockUserRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	return NewAuthService(repo, newTestJWT(), blacklist, zap.NewNop()), repo, blacklist
}

func newTestUser(t *testing.T, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Rahim Uddin", "rahim@tiller.test", "secret1", role)
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues tokens and records the login", func(t *testing.T) {
		svc, repo, _ := newAuthFixture()
		user := newTestUser(t, identity.RoleUser)
		repo.On("FindByEmail", ctx, "rahim@tiller.test").Return(user, nil)
		repo.On("Update", ctx, user).Return(nil)

		resp, err := svc.Login(ctx, LoginRequest{Email: "rahim@tiller.test", Password: "secret1"})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.NotNil(t, user.LastLoginAt)
		repo.AssertExpectations(t)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc, repo, _ := newAuthFixture()
		repo.On("FindByEmail", ctx, "nobody@tiller.test").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(ctx, LoginRequest{Email: "nobody@tiller.test", Password: "secret1"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_ACCOUNT", domainErr.Code)
		assert.Equal(t, "Invalid or inactive account", domainErr.Message)
	})

	t.Run("inactive account", func(t *testing.T) {
		svc, repo, _ := newAuthFixture()
		user := newTestUser(t, identity.RoleUser)
		user.IsActive = false
		repo.On("FindByEmail", ctx, "rahim@tiller.test").Return(user, nil)

		_, err := svc.Login(ctx, LoginRequest{Email: "rahim@tiller.test", Password: "secret1"})

		assert.ErrorContains(t, err, "Invalid or inactive account")
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo, _ := newAuthFixture()
		repo.On("FindByEmail", ctx, "rahim@tiller.test").Return(newTestUser(t, identity.RoleUser), nil)

		_, err := svc.Login(ctx, LoginRequest{Email: "rahim@tiller.test", Password: "wrong-password"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
		assert.Equal(t, "Invalid credentials", domainErr.Message)
	})
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newAuthFixture()
	user := newTestUser(t, identity.RoleSuperAdmin)
	repo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	repo.On("Update", ctx, user).Return(nil)

	resp, err := svc.Login(ctx, LoginRequest{Email: user.Email, Password: "secret1"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "SUPERADMIN", claims.Role)

	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.Authenticate(ctx, resp.AccessToken)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_REVOKED", domainErr.Code)
}

func TestAuthService_Authenticate_InvalidToken(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Authenticate(context.Background(), "garbage")

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newAuthFixture()
	user := newTestUser(t, identity.RoleUser)
	repo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	repo.On("Update", ctx, user).Return(nil)
	repo.On("FindByID", ctx, user.ID).Return(user, nil)

	login, err := svc.Login(ctx, LoginRequest{Email: user.Email, Password: "secret1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	assert.Error(t, err, "a refresh token is single use")
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newAuthFixture()
	user := newTestUser(t, identity.RoleUser)
	repo.On("FindByID", ctx, user.ID).Return(user, nil)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rahim@tiller.test", me.Email)
	assert.Equal(t, "USER", me.Role)
}
