package reports

import (
	"context"
	"testing"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/repositories/mocks"
	"mlm/internal/services/sponsorship"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type levelCounts []sponsorship.LevelCount

func (l levelCounts) LevelCounts(context.Context, string) ([]sponsorship.LevelCount, error) {
	return l, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(commissions *mocks.CommissionRepository, users *mocks.UserRepository, orders *mocks.OrderRepository) Service {
	return NewService(commissions, users, orders, levelCounts{{Level: 1, Count: 2}, {Level: 2}, {Level: 3}})
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]repositories.StatusLevelTotal{
		{Status: models.CommissionStatusPaid, Level: 1, Count: 1, Total: d("100.00")},
		{Status: models.CommissionStatusPending, Level: 1, Count: 2, Total: d("30.00")},
		{Status: models.CommissionStatusPending, Level: 2, Count: 1, Total: d("50.00")},
	})

	assert.Equal(t, int64(4), summary.TotalCount)
	assert.True(t, summary.Total.Equal(d("180.00")))
	assert.Equal(t, int64(3), summary.PendingCount)
	assert.True(t, summary.Pending.Equal(d("80.00")))
	assert.Equal(t, int64(1), summary.PaidCount)
	assert.True(t, summary.Paid.Equal(d("100.00")))

	require.Len(t, summary.Levels, 3)
	assert.True(t, summary.Levels[0].Total.Equal(d("130.00")))
	assert.True(t, summary.Levels[0].Paid.Equal(d("100.00")))
	assert.True(t, summary.Levels[1].Pending.Equal(d("50.00")))
	assert.Zero(t, summary.Levels[2].Count)
	assert.True(t, summary.Levels[2].Total.IsZero())
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	assert.Zero(t, summary.TotalCount)
	assert.True(t, summary.Total.IsZero())
	assert.Len(t, summary.Levels, 3)
}

func TestEarnings(t *testing.T) {
	commissions := new(mocks.CommissionRepository)
	commissions.On("StatusLevelTotals", mock.Anything, "u1").Return([]repositories.StatusLevelTotal{
		{Status: models.CommissionStatusPending, Level: 2, Count: 1, Total: d("50.00")},
	}, nil)

	earnings, err := newTestService(commissions, new(mocks.UserRepository), new(mocks.OrderRepository)).
		Earnings(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", earnings.UserID)
	assert.True(t, earnings.Pending.Equal(d("50.00")))
	assert.True(t, earnings.Paid.IsZero())
}

func TestPayables_RoundsTotals(t *testing.T) {
	commissions := new(mocks.CommissionRepository)
	commissions.On("PayableSummaries", mock.Anything).Return([]repositories.PayableSummary{
		{UserID: "u1", PendingCount: 3, PendingTotal: d("99.99999999999999")},
	}, nil)

	rows, err := newTestService(commissions, new(mocks.UserRepository), new(mocks.OrderRepository)).
		Payables(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "100", rows[0].PendingTotal.String())
}

func TestTeam(t *testing.T) {
	commissions := new(mocks.CommissionRepository)
	users := new(mocks.UserRepository)
	orders := new(mocks.OrderRepository)

	joined := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	users.On("ListDirectDownline", mock.Anything, "root").Return([]*models.User{
		{ID: "m1", Name: "Mia", Status: models.UserStatusActive, CreatedAt: joined},
		{ID: "m2", Name: "Max", Status: models.UserStatusInactive, CreatedAt: joined},
	}, nil)
	orders.On("CountByUsers", mock.Anything, []string{"m1", "m2"}).Return(map[string]int64{"m1": 4}, nil)
	commissions.On("PaidTotalsByUsers", mock.Anything, []string{"m1", "m2"}).Return(map[string]decimal.Decimal{"m2": d("12.50")}, nil)

	team, err := newTestService(commissions, users, orders).Team(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, team.Members, 2)

	assert.Equal(t, int64(4), team.Members[0].OrderCount)
	assert.True(t, team.Members[0].PaidEarnings.IsZero())
	assert.Zero(t, team.Members[1].OrderCount)
	assert.True(t, team.Members[1].PaidEarnings.Equal(d("12.50")))
	assert.Equal(t, 2, team.Levels[0].Count)
}

func TestHistory_PassesFilter(t *testing.T) {
	commissions := new(mocks.CommissionRepository)
	filter := repositories.CommissionFilter{UserID: "u1", Status: models.CommissionStatusPending, Level: 2}
	commissions.On("History", mock.Anything, filter, 20, 10).Return([]repositories.CommissionHistoryRow{{ID: "c1"}}, int64(21), nil)

	rows, total, err := newTestService(commissions, new(mocks.UserRepository), new(mocks.OrderRepository)).
		History(context.Background(), filter, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(21), total)
	assert.Len(t, rows, 1)
}
