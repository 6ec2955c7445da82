package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the environment. A .env file in
// the working directory is loaded first (existing environment variables
// win); a missing file is not an error.
//
// Recognized variables:
//
//	ADDRESS                      bind address
//	DATABASE_DSN                 PostgreSQL DSN
//	SECRET_KEY                   JWT signing secret
//	ANON_KEY                     public API key
//	ACCESS_TOKEN_TTL             e.g. "1h"
//	REFRESH_TOKEN_TTL            e.g. "720h"
//	REQUIRE_EMAIL_CONFIRMATION   "true" / "false"
//	RATE_LIMIT_RPS               requests per second per client
//	RATE_LIMIT_BURST             burst size per client
//	CORS_ORIGINS                 comma-separated origins
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("ANON_KEY"); v != "" {
		cfg.AnonKey = v
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AccessTokenValidityDuration = d
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshTokenValidityDuration = d
		}
	}
	if v := os.Getenv("REQUIRE_EMAIL_CONFIRMATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RequireEmailConfirmation = b
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = v
	}
}
