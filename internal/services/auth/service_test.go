package auth

import (
	"context"
	"testing"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/repositories/mocks"
	"mlm/internal/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testUser(t *testing.T, status string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Email:        "dist@example.com",
		Password:     string(hash),
		Role:         models.RoleDistributor,
		Status:       status,
		TokenVersion: 3,
	}
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	repo := new(mocks.UserRepository)
	repo.On("GetByEmail", mock.Anything, "dist@example.com").Return(testUser(t, models.UserStatusActive), nil)

	user, access, refresh, err := NewService(repo, zerolog.Nop()).Login(context.Background(), " Dist@Example.com", "s3cret!pass")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, claims, err := utils.ParseToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.True(t, claims.HasPermission(models.PermissionCommissionRead))
	assert.False(t, claims.HasPermission(models.PermissionPayoutWrite))

	_, refreshClaims, err := utils.ParseToken(refresh)
	require.NoError(t, err)
	assert.Empty(t, refreshClaims.Permissions)
}

func TestLogin_Rejections(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	ctx := context.Background()

	repo := new(mocks.UserRepository)
	repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repositories.ErrUserNotFound)
	repo.On("GetByEmail", mock.Anything, "dist@example.com").Return(testUser(t, models.UserStatusActive), nil).Once()
	repo.On("GetByEmail", mock.Anything, "dist@example.com").Return(testUser(t, models.UserStatusInactive), nil).Once()
	svc := NewService(repo, zerolog.Nop())

	_, _, _, err := svc.Login(ctx, "nobody@example.com", "s3cret!pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login(ctx, "dist@example.com", "wrong!pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login(ctx, "dist@example.com", "s3cret!pass")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	ctx := context.Background()

	user := testUser(t, models.UserStatusActive)
	_, refresh, err := utils.GenerateTokens(claimsFor(user))
	require.NoError(t, err)

	t.Run("current version", func(t *testing.T) {
		repo := new(mocks.UserRepository)
		repo.On("GetByID", mock.Anything, "u1").Return(user, nil)

		access, _, err := NewService(repo, zerolog.Nop()).RefreshTokens(ctx, refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
	})

	t.Run("after logout", func(t *testing.T) {
		bumped := *user
		bumped.TokenVersion++
		repo := new(mocks.UserRepository)
		repo.On("GetByID", mock.Anything, "u1").Return(&bumped, nil)

		_, _, err := NewService(repo, zerolog.Nop()).RefreshTokens(ctx, refresh)
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := NewService(new(mocks.UserRepository), zerolog.Nop()).RefreshTokens(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLogout(t *testing.T) {
	repo := new(mocks.UserRepository)
	repo.On("IncrementTokenVersion", mock.Anything, "u1").Return(nil)

	require.NoError(t, NewService(repo, zerolog.Nop()).Logout(context.Background(), "u1"))
	repo.AssertExpectations(t)
}
