// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type CommissionRepository struct {
	mock.Mock
}

var _ repositories.CommissionRepository = (*CommissionRepository)(nil)

// ExecuteInTransaction runs fn against the mock itself.
func (m *CommissionRepository) ExecuteInTransaction(_ context.Context, fn func(repositories.CommissionRepository) error) error {
	return fn(m)
}

func (m *CommissionRepository) InsertIfAbsent(ctx context.Context, commission *models.Commission) (bool, error) {
	args := m.Called(ctx, commission)
	return args.Bool(0), args.Error(1)
}

func (m *CommissionRepository) ListByOrder(ctx context.Context, orderID string) ([]models.Commission, error) {
	args := m.Called(ctx, orderID)
	rows, _ := args.Get(0).([]models.Commission)
	return rows, args.Error(1)
}

func (m *CommissionRepository) SettlePending(ctx context.Context, payout *models.Payout) (int64, error) {
	args := m.Called(ctx, payout)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CommissionRepository) MarkPaid(ctx context.Context, ids []string, paidAt time.Time) (int64, error) {
	args := m.Called(ctx, ids, paidAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CommissionRepository) PayableSummaries(ctx context.Context) ([]repositories.PayableSummary, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]repositories.PayableSummary)
	return rows, args.Error(1)
}

func (m *CommissionRepository) PayableSummary(ctx context.Context, userID string) (*repositories.PayableSummary, error) {
	args := m.Called(ctx, userID)
	row, _ := args.Get(0).(*repositories.PayableSummary)
	return row, args.Error(1)
}

func (m *CommissionRepository) History(ctx context.Context, filter repositories.CommissionFilter, offset, limit int) ([]repositories.CommissionHistoryRow, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	rows, _ := args.Get(0).([]repositories.CommissionHistoryRow)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *CommissionRepository) StatusLevelTotals(ctx context.Context, userID string) ([]repositories.StatusLevelTotal, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]repositories.StatusLevelTotal)
	return rows, args.Error(1)
}

func (m *CommissionRepository) PaidTotalsByUsers(ctx context.Context, userIDs []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, userIDs)
	totals, _ := args.Get(0).(map[string]decimal.Decimal)
	return totals, args.Error(1)
}

func (m *CommissionRepository) ListPayouts(ctx context.Context, userID string, offset, limit int) ([]models.Payout, int64, error) {
	args := m.Called(ctx, userID, offset, limit)
	rows, _ := args.Get(0).([]models.Payout)
	return rows, args.Get(1).(int64), args.Error(2)
}
