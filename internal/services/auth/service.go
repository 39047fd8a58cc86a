// Package auth issues and refreshes access tokens.
package auth

import (
	"context"
	"strings"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrSessionExpired     = errors.New("session expired")
)

type Service interface {
	Login(ctx context.Context, email, password string) (*models.User, string, string, error)
	RefreshTokens(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, userID string) error
	GetUserTokenVersion(ctx context.Context, userID string) (int, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type service struct {
	userRepo repositories.UserRepository
	log      zerolog.Logger
}

func NewService(userRepo repositories.UserRepository, log zerolog.Logger) Service {
	if userRepo == nil {
		panic("user repository is required")
	}
	return &service{
		userRepo: userRepo,
		log:      log,
	}
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.log.Info().Str("email", email).Msg("login failed: unknown email")
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.Info().Str("user_id", user.ID).Msg("login failed: incorrect password")
		return nil, "", "", ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, "", "", ErrAccountInactive
	}

	accessToken, refreshToken, err := utils.GenerateTokens(claimsFor(user))
	if err != nil {
		return nil, "", "", errors.Wrap(err, "failed to generate tokens")
	}
	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", err
	}
	if user.TokenVersion != claims.TokenVersion {
		return "", "", ErrSessionExpired
	}
	if user.Status != models.UserStatusActive {
		return "", "", ErrAccountInactive
	}

	return utils.GenerateTokens(claimsFor(user))
}

// Logout bumps the token version, which invalidates every issued token.
func (s *service) Logout(ctx context.Context, userID string) error {
	return s.userRepo.IncrementTokenVersion(ctx, userID)
}

func (s *service) GetUserTokenVersion(ctx context.Context, userID string) (int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

func (s *service) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func claimsFor(user *models.User) *models.UserClaims {
	return &models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	}
}
