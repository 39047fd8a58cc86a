package mocks

import (
	"context"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/stretchr/testify/mock"
)

type UserRepository struct {
	mock.Mock
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *UserRepository) GetWithPassword(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *UserRepository) GetByIBONumber(ctx context.Context, ibo string) (*models.User, error) {
	return m.user(m.Called(ctx, ibo))
}

func (m *UserRepository) GetBySponsorNumber(ctx context.Context, sponsorNumber string) (*models.User, error) {
	return m.user(m.Called(ctx, sponsorNumber))
}

func (m *UserRepository) IBONumberExists(ctx context.Context, ibo string) (bool, error) {
	args := m.Called(ctx, ibo)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) SponsorNumberExists(ctx context.Context, sponsorNumber string) (bool, error) {
	args := m.Called(ctx, sponsorNumber)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) GetSponsorID(ctx context.Context, userID string) (*string, error) {
	args := m.Called(ctx, userID)
	id, _ := args.Get(0).(*string)
	return id, args.Error(1)
}

func (m *UserRepository) ListDirectDownline(ctx context.Context, sponsorID string) ([]*models.User, error) {
	args := m.Called(ctx, sponsorID)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func (m *UserRepository) ListDownlineIDs(ctx context.Context, sponsorIDs []string) ([]string, error) {
	args := m.Called(ctx, sponsorIDs)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func (m *UserRepository) UpdateStatus(ctx context.Context, userID, status string) error {
	return m.Called(ctx, userID, status).Error(0)
}

func (m *UserRepository) UpdateSponsor(ctx context.Context, userID string, sponsorID *string) error {
	return m.Called(ctx, userID, sponsorID).Error(0)
}

func (m *UserRepository) IncrementTokenVersion(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *UserRepository) List(ctx context.Context, filter repositories.UserFilter, offset, limit int) ([]*models.User, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *UserRepository) user(args mock.Arguments) (*models.User, error) {
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
