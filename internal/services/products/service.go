// Package products manages the catalog that order lines are priced from.
package products

import (
	"context"
	"strings"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = repositories.ErrProductNotFound
	ErrInvalidProduct  = errors.New("product needs a name and a non-negative price with at most 2 decimals")
)

// Input carries the editable product fields.
type Input struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
}

type Service interface {
	Create(ctx context.Context, in Input) (*models.Product, error)
	Update(ctx context.Context, id string, in Input) (*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Product, int64, error)
}

type service struct {
	repo repositories.ProductRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo repositories.ProductRepository, log zerolog.Logger) Service {
	if repo == nil {
		panic("product repository is required")
	}
	return &service{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks product fields before they are written.
func Validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidProduct
	}
	if in.Price.IsNegative() || !in.Price.Equal(in.Price.Round(2)) {
		return ErrInvalidProduct
	}
	return nil
}

func (s *service) Create(ctx context.Context, in Input) (*models.Product, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		IsActive:    in.IsActive,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", product.ID).Str("price", product.Price.StringFixed(2)).Msg("product created")
	return product, nil
}

func (s *service) Update(ctx context.Context, id string, in Input) (*models.Product, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(in.Name)
	product.Description = in.Description
	product.Category = in.Category
	product.Price = in.Price
	product.IsActive = in.IsActive
	product.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", id).Str("price", product.Price.StringFixed(2)).Bool("active", product.IsActive).Msg("product updated")
	return product, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Product, int64, error) {
	return s.repo.List(ctx, activeOnly, offset, limit)
}
