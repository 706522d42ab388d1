package authapi

import (
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/auth"
	"github.com/tuanngo/shopcms/services/logging"
	"go.uber.org/fx"
)

func ProvideHandler(cfg *config.Config, authService *auth.Service, logger *logging.Service) *Handler {
	return NewHandler(cfg, authService, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideHandler),
)
