package auth

import (
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"github.com/tuanngo/shopcms/services/mail"
	"github.com/tuanngo/shopcms/services/password"
	"github.com/tuanngo/shopcms/services/refreshsession"
	"github.com/tuanngo/shopcms/services/token"
	"github.com/tuanngo/shopcms/services/user"
	"go.uber.org/fx"
)

func ProvideAuthService(
	cfg *config.Config,
	users *user.Service,
	passwords *password.Service,
	tokens *token.Service,
	sessions *refreshsession.Service,
	mailer mail.Sender,
	logger *logging.Service,
) *Service {
	service := NewService(cfg, users, passwords, tokens, sessions, logger)

	if mailer != nil {
		service.SetMailer(mailer)
	}

	return service
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService),
)
