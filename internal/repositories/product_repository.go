package repositories

import (
	"context"

	"mlm/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository persists the product catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)

	// GetByIDs returns the products found among ids, keyed by id. Missing ids
	// are simply absent.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)

	List(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Product, int64, error)
	Save(ctx context.Context, product *models.Product) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return errors.Wrap(err, "failed to create product")
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "failed to get product")
	}
	return &product, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	found := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "failed to get products")
	}
	for i := range products {
		found[products[i].ID] = &products[i]
	}
	return found, nil
}

func (r *productRepository) List(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count products")
	}

	var products []models.Product
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list products")
	}
	return products, total, nil
}

func (r *productRepository) Save(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).Model(product).
		Select("name", "description", "category", "price", "is_active", "updated_at").
		Updates(product)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update product")
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
