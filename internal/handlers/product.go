package handlers

import (
	"mlm/internal/models"
	"mlm/internal/services/products"
	"mlm/internal/utils"
	"mlm/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	productService products.Service
}

func NewProductHandler(productSvc products.Service) *ProductHandler {
	return &ProductHandler{productService: productSvc}
}

type productRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Category    string          `json:"category" validate:"max=64"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active"`
}

func (r productRequest) input() products.Input {
	return products.Input{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		IsActive:    r.IsActive == nil || *r.IsActive,
	}
}

// ListProducts pages through the catalog. Only admins see inactive products.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	activeOnly := claims.Role != models.RoleAdmin || c.QueryBool("active_only")

	p := pagination.ParseFromRequest(c)
	list, total, err := h.productService.List(c.UserContext(), activeOnly, p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, list))
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	product, err := h.productService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !product.IsActive && claims.Role != models.RoleAdmin {
		return writeError(c, products.ErrProductNotFound)
	}
	return utils.Success(c, product)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var input productRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	product, err := h.productService.Create(c.UserContext(), input.input())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Created(c, product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var input productRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	product, err := h.productService.Update(c.UserContext(), c.Params("id"), input.input())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, product)
}
