package app

import (
	"fmt"

	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/database"
	"github.com/tuanngo/shopcms/handlers/authapi"
	"github.com/tuanngo/shopcms/middleware/ratelimit"
	"github.com/tuanngo/shopcms/server"
	"github.com/tuanngo/shopcms/services/auth"
	"github.com/tuanngo/shopcms/services/logging"
	"github.com/tuanngo/shopcms/services/mail"
	"github.com/tuanngo/shopcms/services/password"
	"github.com/tuanngo/shopcms/services/refreshsession"
	"github.com/tuanngo/shopcms/services/token"
	"github.com/tuanngo/shopcms/services/user"
	"go.uber.org/fx"
)

// AppBuilder assembles the application: config, logger and database are built
// eagerly so construction errors surface before fx starts, everything else is
// wired through fx providers.
type AppBuilder struct {
	config    *config.Config
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithModels registers extra models for auto-migration on top of the auth
// tables, which are always migrated.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		b.WithAutoConfig()
		if len(b.errors) > 0 {
			return nil, fmt.Errorf("configuration errors: %v", b.errors)
		}
	}

	logger, err := logging.NewService(logging.Config{
		Level:      b.config.Log.Level,
		Format:     b.config.Log.Format,
		OutputPath: b.config.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	models := append([]any{
		&user.User{},
		&user.VerificationCode{},
		&refreshsession.RefreshSession{},
	}, b.models...)

	db, err := database.ProvideDatabase(*b.config, database.WithModels(models...), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		config: b.config,
		logger: logger,
		db:     db,
	}

	options := []fx.Option{
		config.NewProvider(b.config),
		fx.Supply(logger),
		fx.Supply(db),
		fx.NopLogger,
		password.Module,
		token.Module,
		refreshsession.Module,
		user.Module,
		mail.Module,
		auth.Module,
		authapi.Module,
		ratelimit.Module,
		server.NewProvider(),
	}
	options = append(options, b.fxOptions...)
	options = append(options, fx.Invoke(func(srv *server.Server) {
		app.server = srv
	}))

	app.fx = fx.New(options...)

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}
