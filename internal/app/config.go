package app

import (
	"time"

	"github.com/clinect/clinect-backend/internal/data/cache"
	"github.com/clinect/clinect-backend/internal/platform/envutil"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	CacheExpiry time.Duration

	// PostgresEnabled gates the account-backed patient sync. The trial
	// pipeline runs without it.
	PostgresEnabled bool
}

func LoadConfig(log *logger.Logger) Config {
	expiryDays := envutil.Int("TRIAL_CACHE_TTL_DAYS", 0)
	expiry := cache.DefaultExpiry
	if expiryDays > 0 {
		expiry = time.Duration(expiryDays) * 24 * time.Hour
	}

	cfg := Config{
		Port:            envutil.String("PORT", "8080"),
		CacheExpiry:     expiry,
		PostgresEnabled: envutil.Bool("POSTGRES_ENABLED", true),
	}
	log.Info("Config loaded",
		"port", cfg.Port,
		"cache_expiry", cfg.CacheExpiry.String(),
		"postgres_enabled", cfg.PostgresEnabled,
	)
	return cfg
}
