package repositories

import (
	"context"

	"mlm/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrRateNotFound = errors.New("commission rate not found")

// RateRepository persists the commission rate table.
type RateRepository interface {
	List(ctx context.Context) ([]models.CommissionRate, error)
	GetByID(ctx context.Context, id string) (*models.CommissionRate, error)
	Create(ctx context.Context, rate *models.CommissionRate) error
	Save(ctx context.Context, rate *models.CommissionRate) error
	ExecuteInTransaction(ctx context.Context, fn func(RateRepository) error) error
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

// List returns every rate row ordered by level, newest first within a level.
func (r *rateRepository) List(ctx context.Context) ([]models.CommissionRate, error) {
	var rates []models.CommissionRate
	if err := r.db.WithContext(ctx).Order("level ASC, updated_at DESC").Find(&rates).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list commission rates")
	}
	return rates, nil
}

func (r *rateRepository) GetByID(ctx context.Context, id string) (*models.CommissionRate, error) {
	var rate models.CommissionRate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, errors.Wrap(err, "failed to get commission rate")
	}
	return &rate, nil
}

func (r *rateRepository) Create(ctx context.Context, rate *models.CommissionRate) error {
	if err := r.db.WithContext(ctx).Create(rate).Error; err != nil {
		return errors.Wrap(err, "failed to create commission rate")
	}
	return nil
}

func (r *rateRepository) Save(ctx context.Context, rate *models.CommissionRate) error {
	result := r.db.WithContext(ctx).Model(rate).Select("percentage", "is_active", "updated_at").Updates(rate)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update commission rate")
	}
	if result.RowsAffected == 0 {
		return ErrRateNotFound
	}
	return nil
}

func (r *rateRepository) ExecuteInTransaction(ctx context.Context, fn func(RateRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&rateRepository{db: tx})
	})
}
