package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file found")
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable (e.g. "30m") or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetListEnv splits a comma separated environment variable.
func GetListEnv(key string) []string {
	raw := GetEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// ErrJWTSecretMissing is returned in production when JWT_SECRET is unset.
var ErrJWTSecretMissing = errors.New("JWT_SECRET not configured")

const devJWTSecret = "mlm-dev-secret"

// JWTSecret returns the signing secret for access and refresh tokens. Outside
// production an unset JWT_SECRET falls back to a development value.
func JWTSecret() (string, error) {
	if secret := GetEnv("JWT_SECRET", ""); secret != "" {
		return secret, nil
	}
	if IsProduction() {
		return "", ErrJWTSecretMissing
	}
	return devJWTSecret, nil
}

// StripeCurrency is the lowercase ISO code orders are charged in.
func StripeCurrency() string {
	return strings.ToLower(GetEnv("STRIPE_CURRENCY", "usd"))
}
