package mocks

import (
	"context"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/stretchr/testify/mock"
)

type ProductRepository struct {
	mock.Mock
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

func (m *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *ProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	args := m.Called(ctx, ids)
	products, _ := args.Get(0).(map[string]*models.Product)
	return products, args.Error(1)
}

func (m *ProductRepository) List(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Product, int64, error) {
	args := m.Called(ctx, activeOnly, offset, limit)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}
