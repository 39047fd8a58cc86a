// Command admin_seed creates the first administrator and restores the default
// commission rates. Running it twice is harmless.
package main

import (
	"context"
	"time"

	"mlm/internal/config"
	"mlm/internal/logging"
	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/routes"
	"mlm/internal/services/user"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {
	config.LoadEnv()
	logging.Init(config.GetEnv("LOG_LEVEL", "info"), !config.IsProduction())

	adminEmail := config.GetEnv("ADMIN_EMAIL", "")
	adminPassword := config.GetEnv("ADMIN_PASSWORD", "")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal().Msg("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("database initialization failed")
	}
	defer repositories.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	svc := routes.BuildServices(repositories.DB, nil, nil)

	admin, err := svc.Users.CreateWithRole(ctx, user.RegisterInput{
		Email:    adminEmail,
		Password: adminPassword,
		Name:     config.GetEnv("ADMIN_NAME", "Administrator"),
		Phone:    config.GetEnv("ADMIN_PHONE", ""),
	}, models.RoleAdmin)
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		log.Info().Str("email", adminEmail).Msg("admin user already exists")
	case err != nil:
		log.Error().Err(err).Msg("failed to create admin user")
		return
	default:
		log.Info().Str("user_id", admin.ID).Str("ibo_number", admin.IBONumber).Msg("admin account created")
	}

	if config.GetEnv("SEED_RATES", "true") == "true" {
		rows, err := svc.Rates.ResetToDefaults(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to seed commission rates")
			return
		}
		log.Info().Int("levels", len(rows)).Msg("default commission rates seeded")
	}

	// The API may be caching the old rate snapshot.
	if repositories.CacheService != nil {
		if err := repositories.CacheService.InvalidateRates(ctx); err != nil {
			log.Warn().Err(err).Msg("could not invalidate cached rates")
		}
	}
}
