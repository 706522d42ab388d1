package user

import (
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, cfg, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideUserService),
)
