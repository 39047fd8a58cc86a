package mocks

import (
	"context"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/stretchr/testify/mock"
)

type OrderRepository struct {
	mock.Mock
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

func (m *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderRepository) List(ctx context.Context, filter repositories.OrderFilter, offset, limit int) ([]*models.Order, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepository) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) CountByUsers(ctx context.Context, userIDs []string) (map[string]int64, error) {
	args := m.Called(ctx, userIDs)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}
