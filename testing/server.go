package e2etesting

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tuanngo/shopcms/app"
	"github.com/tuanngo/shopcms/config"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

// E2EApp runs the full application behind an httptest server, with a shared
// in-memory database. Requests travel through the real middleware chain.
type E2EApp struct {
	App        *app.App
	TestServer *httptest.Server
	BaseURL    string
	Config     *config.Config
	DB         *gorm.DB
	Client     *HTTPClient
}

// OverrideConfig tweaks the generated test config before the app is built.
type TestConfig struct {
	OverrideConfig func(*config.Config)
}

func NewE2EApp(t *testing.T, testCfg *TestConfig) *E2EApp {
	t.Helper()

	cfg := defaultE2EConfig()
	if testCfg != nil && testCfg.OverrideConfig != nil {
		testCfg.OverrideConfig(cfg)
	}

	application, err := app.NewApp().WithConfig(cfg).Build()
	require.NoError(t, err, "failed to build e2e application")

	require.NoError(t, application.StartTest(), "failed to start e2e application")

	ts := httptest.NewServer(application.Server())

	e2e := &E2EApp{
		App:        application,
		TestServer: ts,
		BaseURL:    ts.URL,
		Config:     cfg,
		DB:         application.DB(),
		Client: &HTTPClient{
			Client:  &http.Client{Timeout: 10 * time.Second},
			BaseURL: ts.URL,
		},
	}

	t.Cleanup(func() {
		ts.Close()
		application.StopTest()
	})

	return e2e
}

func defaultE2EConfig() *config.Config {
	cfg := &config.Config{}

	cfg.App.Name = "shopcms"
	cfg.App.URL = "http://localhost:8080"
	cfg.App.Env = "test"

	cfg.Server.Host = "localhost"
	cfg.Server.Port = "0"

	cfg.Log.Level = "error"
	cfg.Log.Format = "console"
	cfg.Log.Output = "stdout"

	// Each harness gets its own named in-memory database; cache=shared keeps
	// every pooled connection on the same database.
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = fmt.Sprintf("file:e2e_%d?mode=memory&cache=shared", dbCounter.Add(1))
	cfg.Database.AutoMigrate = true

	cfg.Auth.PBKDF2Iterations = 1000
	cfg.Auth.SaltLength = 16
	cfg.Auth.MinPasswordLength = 6
	cfg.Auth.VerificationExpiry = 10 * time.Minute

	cfg.JWT.AccessSecret = "e2e_access_secret"
	cfg.JWT.RefreshSecret = "e2e_refresh_secret"
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
