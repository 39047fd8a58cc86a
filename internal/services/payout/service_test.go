package payout

import (
	"context"
	"testing"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/repositories/mocks"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mocks.CommissionRepository, users *mocks.UserRepository) *service {
	svc := NewService(repo, users, nil, zerolog.Nop()).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestPayUserCommissions(t *testing.T) {
	ctx := context.Background()

	t.Run("settles and reports totals", func(t *testing.T) {
		repo := new(mocks.CommissionRepository)
		users := new(mocks.UserRepository)
		users.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)

		cutoff := fixedNow.Add(-time.Hour)
		repo.On("SettlePending", mock.Anything, mock.MatchedBy(func(p *models.Payout) bool {
			return p.UserID == "u1" && p.Cutoff.Equal(cutoff) && p.Note == DefaultNote
		})).Run(func(args mock.Arguments) {
			p := args.Get(1).(*models.Payout)
			p.ID = "payout-1"
			p.CommissionCount = 3
			p.TotalAmount = decimal.RequireFromString("60.00")
		}).Return(int64(3), nil)

		got, err := newTestService(repo, users).PayUserCommissions(ctx, "u1", cutoff, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "payout-1", got.PayoutID)
		assert.Equal(t, int64(3), got.Count)
		assert.True(t, got.Total.Equal(decimal.NewFromInt(60)))
		repo.AssertExpectations(t)
	})

	t.Run("second run reports zero", func(t *testing.T) {
		repo := new(mocks.CommissionRepository)
		users := new(mocks.UserRepository)
		users.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
		repo.On("SettlePending", mock.Anything, mock.Anything).Return(int64(0), nil)

		got, err := newTestService(repo, users).PayUserCommissions(ctx, "u1", fixedNow, "again", nil)
		require.NoError(t, err)
		assert.Zero(t, got.Count)
		assert.Empty(t, got.PayoutID)
		assert.True(t, got.Total.IsZero())
	})

	t.Run("future cutoff is clamped", func(t *testing.T) {
		repo := new(mocks.CommissionRepository)
		users := new(mocks.UserRepository)
		users.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
		repo.On("SettlePending", mock.Anything, mock.MatchedBy(func(p *models.Payout) bool {
			return p.Cutoff.Equal(fixedNow)
		})).Return(int64(0), nil)

		_, err := newTestService(repo, users).PayUserCommissions(ctx, "u1", fixedNow.Add(72*time.Hour), "", nil)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("zero cutoff means now and records admin", func(t *testing.T) {
		repo := new(mocks.CommissionRepository)
		users := new(mocks.UserRepository)
		admin := "admin-1"
		users.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
		repo.On("SettlePending", mock.Anything, mock.MatchedBy(func(p *models.Payout) bool {
			return p.Cutoff.Equal(fixedNow) && p.PaidBy != nil && *p.PaidBy == admin
		})).Return(int64(0), nil)

		_, err := newTestService(repo, users).PayUserCommissions(ctx, "u1", time.Time{}, "", &admin)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(mocks.CommissionRepository)
		users := new(mocks.UserRepository)
		users.On("GetByID", mock.Anything, "ghost").Return(nil, repositories.ErrUserNotFound)

		_, err := newTestService(repo, users).PayUserCommissions(ctx, "ghost", fixedNow, "", nil)
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
		repo.AssertNotCalled(t, "SettlePending", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := new(mocks.CommissionRepository)
		users := new(mocks.UserRepository)
		users.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
		repo.On("SettlePending", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

		_, err := newTestService(repo, users).PayUserCommissions(ctx, "u1", fixedNow, "", nil)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()

	repo := new(mocks.CommissionRepository)
	repo.On("MarkPaid", mock.Anything, []string{"a", "b"}, fixedNow).Return(int64(1), nil)

	svc := newTestService(repo, new(mocks.UserRepository))
	count, err := svc.MarkPaid(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.MarkPaid(ctx, nil)
	assert.ErrorIs(t, err, ErrNoCommissionsSelected)
}
