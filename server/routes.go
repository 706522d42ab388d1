package server

import (
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/handlers/authapi"
	"github.com/tuanngo/shopcms/middleware/authgate"
	"github.com/tuanngo/shopcms/middleware/ratelimit"
	"github.com/tuanngo/shopcms/services/logging"
	"github.com/tuanngo/shopcms/services/token"
)

// RegisterRoutes mounts the auth API and installs the page gate. Login and
// refresh share a failure-counting rate limit so working sessions refresh
// freely while guessing attempts lock out fast.
func RegisterRoutes(
	srv *Server,
	cfg *config.Config,
	handler *authapi.Handler,
	tokens *token.Service,
	store ratelimit.Store,
	logger *logging.Service,
) {
	srv.Echo().Use(authgate.Middleware(authgate.Config{
		Tokens: tokens,
		Logger: logger,
	}))

	group := srv.Group("/api/auth")

	if cfg.RateLimit.Enabled {
		group.Use(ratelimit.Middleware(&ratelimit.Config{
			Store:     store,
			Rate:      cfg.RateLimit.Rate,
			Period:    cfg.RateLimit.Period,
			CountMode: ratelimit.CountFailures,
		}))
	}

	handler.RegisterRoutes(group)
}
