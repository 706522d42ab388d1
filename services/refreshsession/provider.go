package refreshsession

import (
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRefreshSessionService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	service := NewService(db, cfg, logger)

	if cfg.RefreshSession.CleanupInterval > 0 {
		service.StartCleanupWorker()
	}

	return service
}

var Module = fx.Options(
	fx.Provide(ProvideRefreshSessionService),
)
