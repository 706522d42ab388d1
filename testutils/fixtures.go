package testutils

import (
	"time"

	"github.com/tuanngo/shopcms/config"
)

// GetTestConfig returns a config with fast, deterministic auth settings.
func GetTestConfig() *config.Config {
	cfg := &config.Config{}

	cfg.App.Name = "shopcms"
	cfg.App.URL = "http://localhost:8080"
	cfg.App.Env = "test"

	cfg.Auth.PBKDF2Iterations = 1000
	cfg.Auth.SaltLength = 16
	cfg.Auth.MinPasswordLength = 6
	cfg.Auth.VerificationExpiry = 10 * time.Minute

	cfg.JWT.AccessSecret = "test_access_secret"
	cfg.JWT.RefreshSecret = "test_refresh_secret"
	cfg.JWT.Issuer = "shopcms"
	cfg.JWT.Audience = "shopcms_web"
	cfg.JWT.AccessExpiry = 15 * time.Minute
	cfg.JWT.RefreshExpiry = 30 * 24 * time.Hour
	cfg.JWT.RememberMeExpiry = 90 * 24 * time.Hour

	cfg.RefreshSession.CleanupInterval = 0
	cfg.RefreshSession.RetainExpired = 24 * time.Hour

	cfg.RateLimit.Enabled = false

	return cfg
}
