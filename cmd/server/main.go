// Package main is the entry point for the commission API.
// It initializes all dependencies, sets up the HTTP server, optionally starts
// the order event consumer, and shuts both down on SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlm/internal/config"
	"mlm/internal/events"
	"mlm/internal/logging"
	"mlm/internal/metrics"
	"mlm/internal/repositories"
	"mlm/internal/repositories/cache"
	"mlm/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnv()
	logging.Init(config.GetEnv("LOG_LEVEL", "info"), !config.IsProduction())

	if _, err := config.JWTSecret(); err != nil {
		log.Fatal().Err(err).Msg("refusing to start without a token signing secret")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("database initialization failed")
	}
	defer repositories.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional; generation and settlement read through to Postgres.
	var cacheSvc *cache.CacheService
	if repositories.CacheService != nil {
		if err := repositories.CacheService.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache")
		} else {
			cacheSvc = repositories.CacheService
		}
	}

	registry := metrics.NewRegistry()
	svc := routes.BuildServices(repositories.DB, cacheSvc, registry)

	app := fiber.New(fiber.Config{
		AppName:      "mlm-api",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 15*time.Second),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(registry.Middleware())

	authLimiter := limiter.New(limiter.Config{
		Max:        config.GetIntEnv("AUTH_RATE_LIMIT", 5),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
	app.Use("/api/auth/register", authLimiter)
	app.Use("/api/auth/login", authLimiter)

	routes.SetupRoutes(app, svc, registry, config.GetEnv("STRIPE_WEBHOOK_SECRET", ""))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + config.GetEnv("PORT", "3000")
		log.Info().Str("addr", addr).Msg("http server listening")
		return app.Listen(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if brokers := config.GetListEnv("KAFKA_BROKERS"); len(brokers) > 0 {
		reader := events.NewReader(
			brokers,
			config.GetEnv("KAFKA_ORDER_TOPIC", "orders.status"),
			config.GetEnv("KAFKA_GROUP_ID", "mlm-commissions"),
		)
		consumer := events.NewConsumer(reader, svc.Orders, logging.For("order_events"))
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	} else {
		log.Info().Msg("KAFKA_BROKERS not set, order event consumer disabled")
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}
