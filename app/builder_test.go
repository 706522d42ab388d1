package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanngo/shopcms/services/refreshsession"
	"github.com/tuanngo/shopcms/services/user"
	"github.com/tuanngo/shopcms/testutils"
)

func newTestBuilder() *AppBuilder {
	cfg := testutils.GetTestConfig()
	cfg.Log.Level = "error"
	cfg.Log.Format = "console"
	cfg.Log.Output = "stdout"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	cfg.Database.AutoMigrate = true
	cfg.Server.Host = "localhost"
	cfg.Server.Port = "0"
	return NewApp().WithConfig(cfg)
}

func TestBuild(t *testing.T) {
	t.Run("nil config is rejected", func(t *testing.T) {
		_, err := NewApp().WithConfig(nil).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config cannot be nil")
	})

	t.Run("builds with explicit config", func(t *testing.T) {
		app, err := newTestBuilder().Build()
		require.NoError(t, err)
		require.NotNil(t, app)
		assert.NotNil(t, app.Config())
		assert.NotNil(t, app.Logger())
		assert.NotNil(t, app.DB())
	})

	t.Run("auth tables are migrated", func(t *testing.T) {
		app, err := newTestBuilder().Build()
		require.NoError(t, err)

		migrator := app.DB().Migrator()
		assert.True(t, migrator.HasTable(&user.User{}))
		assert.True(t, migrator.HasTable(&user.VerificationCode{}))
		assert.True(t, migrator.HasTable(&refreshsession.RefreshSession{}))
	})

	t.Run("extra models are migrated", func(t *testing.T) {
		type Product struct {
			ID   uint `gorm:"primaryKey"`
			Name string
		}

		app, err := newTestBuilder().WithModels(&Product{}).Build()
		require.NoError(t, err)
		assert.True(t, app.DB().Migrator().HasTable(&Product{}))
	})

	t.Run("unknown database driver fails", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Log.Level = "error"
		cfg.Log.Output = "stdout"
		cfg.Database.Driver = "oracle"

		_, err := NewApp().WithConfig(cfg).Build()
		require.Error(t, err)
	})
}

func TestAppLifecycle(t *testing.T) {
	app, err := newTestBuilder().Build()
	require.NoError(t, err)

	require.NoError(t, app.StartTest())
	assert.NotNil(t, app.Server())
	app.StopTest()
}
