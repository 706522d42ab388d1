package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// CountingMode selects which outcomes consume budget. The auth endpoints use
// CountFailures so a legitimate user refreshing normally is never throttled,
// while a credential-stuffing run burns through its budget quickly.
type CountingMode string

const (
	CountAll      CountingMode = "all"
	CountFailures CountingMode = "failures"
)

type Config struct {
	Store          Store
	Rate           int
	Period         time.Duration
	CountMode      CountingMode
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context) error
}

func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}

	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	if cfg.CountMode == "" {
		cfg.CountMode = CountAll
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)
			now := time.Now()
			resetTime := now.Add(cfg.Period)

			count, existingResetTime, exists := cfg.Store.Get(key)
			if exists {
				resetTime = existingResetTime
			}

			if count >= cfg.Rate {
				setLimitHeaders(c, cfg.Rate, 0, resetTime)
				return cfg.OnLimitReached(c)
			}

			if cfg.CountMode == CountAll {
				count = cfg.Store.Increment(key, resetTime)
				setLimitHeaders(c, cfg.Rate, max(cfg.Rate-count, 0), resetTime)
				return next(c)
			}

			setLimitHeaders(c, cfg.Rate, max(cfg.Rate-count, 0), resetTime)

			err := next(c)

			// Only a failed attempt consumes budget.
			if c.Response().Status >= 400 {
				cfg.Store.Increment(key, resetTime)
			}

			return err
		}
	}
}

func setLimitHeaders(c echo.Context, limit, remaining int, resetTime time.Time) {
	c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
}

func DefaultKeyGenerator(c echo.Context) string {
	realIP := c.RealIP()

	if realIP == "" || realIP == "unknown" {
		realIP = "fallback"
	}

	return "rate_limit:" + realIP
}

func DefaultOnLimitReached(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"error": "too many requests",
	})
}
