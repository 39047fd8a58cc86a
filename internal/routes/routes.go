// Package routes defines the API routing configuration.
// It builds the service graph and mounts every handler with its
// authentication and permission requirements.
package routes

import (
	"mlm/internal/config"
	"mlm/internal/handlers"
	"mlm/internal/logging"
	"mlm/internal/metrics"
	"mlm/internal/middleware"
	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/repositories/cache"
	"mlm/internal/services/auth"
	"mlm/internal/services/commission"
	"mlm/internal/services/orders"
	"mlm/internal/services/payout"
	"mlm/internal/services/products"
	"mlm/internal/services/rates"
	"mlm/internal/services/reports"
	"mlm/internal/services/sponsorship"
	"mlm/internal/services/user"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services is the wired service graph shared by the HTTP server, the event
// consumer and the operator CLI.
type Services struct {
	DB    *gorm.DB
	Cache *cache.CacheService

	Auth        auth.Service
	Users       user.Service
	Sponsorship sponsorship.Service
	Rates       rates.Service
	Commissions commission.Service
	Products    products.Service
	Orders      orders.Service
	Payouts     payout.Service
	Reports     reports.Service
}

// BuildServices wires repositories and services. cacheSvc and registry may
// be nil.
func BuildServices(db *gorm.DB, cacheSvc *cache.CacheService, registry *metrics.Registry) *Services {
	userRepo := repositories.NewUserRepository(db, cacheSvc)
	orderRepo := repositories.NewOrderRepository(db)
	rateRepo := repositories.NewRateRepository(db)
	commissionRepo := repositories.NewCommissionRepository(db)
	productRepo := repositories.NewProductRepository(db)

	var (
		commissionMetrics commission.MetricsCollector = &commission.NoopMetricsCollector{}
		payoutMetrics     payout.MetricsCollector     = &payout.NoopMetricsCollector{}
	)
	if registry != nil {
		commissionMetrics = registry.Commission()
		payoutMetrics = registry.Payout()
	}

	// A nil *CacheService must not reach the rates service as a non-nil interface.
	var rateCache rates.Cache
	if cacheSvc != nil {
		rateCache = cacheSvc
	}

	graph := sponsorship.NewService(userRepo, logging.For("sponsorship"))
	rateSvc := rates.NewService(rateRepo, rateCache, logging.For("rates"))
	commissionSvc := commission.NewService(commissionRepo, orderRepo, graph, rateSvc, commissionMetrics, logging.For("commission"))

	return &Services{
		DB:          db,
		Cache:       cacheSvc,
		Auth:        auth.NewService(userRepo, logging.For("auth")),
		Users:       user.NewService(userRepo, graph, logging.For("user")),
		Sponsorship: graph,
		Rates:       rateSvc,
		Commissions: commissionSvc,
		Products:    products.NewService(productRepo, logging.For("products")),
		Orders:      orders.NewService(orderRepo, productRepo, commissionSvc, logging.For("orders")),
		Payouts:     payout.NewService(commissionRepo, userRepo, payoutMetrics, logging.For("payout")),
		Reports:     reports.NewService(commissionRepo, userRepo, orderRepo, graph),
	}
}

// SetupRoutes mounts every route on app. registry may be nil, in which case
// /metrics is not served.
func SetupRoutes(app *fiber.App, svc *Services, registry *metrics.Registry, stripeSecret string) {
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Users)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Reports, svc.Payouts)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	productHandler := handlers.NewProductHandler(svc.Products)
	commissionHandler := handlers.NewCommissionHandler(svc.Reports, svc.Payouts)
	rateHandler := handlers.NewRateHandler(svc.Rates)
	adminHandler := handlers.NewAdminHandler(svc.Users)
	healthHandler := handlers.NewHealthHandler(svc.DB, svc.Cache)
	webhookHandler := handlers.NewWebhookHandler(svc.Orders, stripeSecret, config.StripeCurrency(), logging.For("webhook"))

	authMiddleware := middleware.NewAuthMiddleware(svc.Auth, logging.For("auth_middleware"))

	app.Get("/health", healthHandler.HealthCheck)
	if registry != nil {
		app.Get("/metrics", registry.Handler())
	}
	app.Post("/webhooks/stripe", webhookHandler.Stripe)

	api := app.Group("/api")

	// Public endpoints
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.LoginUser)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	protected := api.Group("", authMiddleware.Handler)
	protected.Post("/auth/logout", authHandler.LogoutUser)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	setupUserRoutes(protected, userHandler)
	setupOrderRoutes(protected, orderHandler, productHandler)
	setupAdminRoutes(protected, adminHandler, orderHandler, productHandler, commissionHandler, rateHandler, healthHandler)
}

func setupUserRoutes(router fiber.Router, h *handlers.UserHandler) {
	me := router.Group("/me")
	me.Get("/", middleware.HasPermission(models.PermissionUserRead), h.GetProfile)
	me.Put("/", middleware.HasPermission(models.PermissionUserRead), h.UpdateProfile)
	me.Get("/earnings", middleware.HasPermission(models.PermissionCommissionRead), h.GetEarnings)
	me.Get("/commissions", middleware.HasPermission(models.PermissionCommissionRead), h.GetCommissionHistory)
	me.Get("/payouts", middleware.HasPermission(models.PermissionCommissionRead), h.GetPayouts)
	me.Get("/team", middleware.HasPermission(models.PermissionTeamRead), h.GetTeam)
}

func setupOrderRoutes(router fiber.Router, h *handlers.OrderHandler, catalog *handlers.ProductHandler) {
	p := router.Group("/products")
	p.Get("/", middleware.HasPermission(models.PermissionOrderRead), catalog.ListProducts)
	p.Get("/:id", middleware.HasPermission(models.PermissionOrderRead), catalog.GetProduct)

	o := router.Group("/orders")
	o.Post("/", middleware.HasPermission(models.PermissionOrderWrite), h.CreateOrder)
	o.Get("/", middleware.HasPermission(models.PermissionOrderRead), h.ListMyOrders)
	o.Get("/:id", middleware.HasPermission(models.PermissionOrderRead), h.GetOrder)
}

func setupAdminRoutes(
	router fiber.Router,
	admin *handlers.AdminHandler,
	order *handlers.OrderHandler,
	product *handlers.ProductHandler,
	commission *handlers.CommissionHandler,
	rate *handlers.RateHandler,
	health *handlers.HealthHandler,
) {
	a := router.Group("/admin", middleware.AdminAuthMiddleware)

	users := a.Group("/users")
	users.Get("/", admin.ListUsers)
	users.Post("/admins", middleware.HasPermission(models.PermissionWriteAdmin), admin.CreateAdmin)
	users.Get("/:id", admin.GetUser)
	users.Put("/:id/status", middleware.HasPermission(models.PermissionUserWrite), admin.SetUserStatus)
	users.Put("/:id/sponsor", middleware.HasPermission(models.PermissionUserWrite), admin.ChangeSponsor)
	users.Put("/:id/bank", middleware.HasPermission(models.PermissionUserWrite), admin.UpdateBank)

	orders := a.Group("/orders")
	orders.Get("/", order.ListOrders)
	orders.Get("/:id", order.GetOrder)
	orders.Put("/:id/status", middleware.HasPermission(models.PermissionOrderWrite), order.UpdateOrderStatus)
	orders.Post("/:id/confirm-payment", middleware.HasPermission(models.PermissionOrderWrite), order.ConfirmPayment)
	orders.Post("/:id/regenerate-commissions", middleware.HasPermission(models.PermissionCommissionWrite), order.RegenerateCommissions)

	catalog := a.Group("/products")
	catalog.Get("/", product.ListProducts)
	catalog.Post("/", middleware.HasPermission(models.PermissionProductWrite), product.CreateProduct)
	catalog.Put("/:id", middleware.HasPermission(models.PermissionProductWrite), product.UpdateProduct)

	commissions := a.Group("/commissions")
	commissions.Get("/", commission.ListCommissions)
	commissions.Get("/stats", commission.Stats)
	commissions.Get("/payables", commission.Payables)
	commissions.Get("/payables/:userId", commission.UserPayable)
	commissions.Post("/payables/:userId/pay", middleware.HasPermission(models.PermissionPayoutWrite), commission.PayUser)
	commissions.Post("/mark-paid", middleware.HasPermission(models.PermissionPayoutWrite), commission.MarkPaid)

	a.Get("/payouts", commission.ListPayouts)

	rates := a.Group("/rates")
	rates.Get("/", rate.ListRates)
	rates.Post("/", middleware.HasPermission(models.PermissionRateWrite), rate.CreateRate)
	rates.Put("/:id", middleware.HasPermission(models.PermissionRateWrite), rate.UpdateRate)
	rates.Post("/reset", middleware.HasPermission(models.PermissionRateWrite), rate.ResetRates)

	a.Get("/cache-stats", health.CacheStats)
}
