package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanngo/shopcms/config"
)

type testModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
}

func testConfig(driver, dsn string, autoMigrate bool) config.Config {
	return config.Config{
		Database: config.DatabaseConfig{
			Driver:      driver,
			DSN:         dsn,
			AutoMigrate: autoMigrate,
		},
	}
}

func TestWithModels(t *testing.T) {
	option := WithModels(testModel{}, &testModel{})
	require.NotNil(t, option)
	assert.Len(t, option.models, 2)
}

func TestProvideDatabase(t *testing.T) {
	t.Run("sqlite in memory", func(t *testing.T) {
		db, err := ProvideDatabase(testConfig("sqlite", ":memory:", false), nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, db)
	})

	t.Run("sqlite file", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "test.db")
		db, err := ProvideDatabase(testConfig("sqlite", dsn, false), nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, db)
	})

	t.Run("auto migrate creates tables", func(t *testing.T) {
		db, err := ProvideDatabase(testConfig("sqlite", ":memory:", true), WithModels(&testModel{}), nil)
		require.NoError(t, err)
		assert.True(t, db.Migrator().HasTable(&testModel{}))
	})

	t.Run("auto migrate skipped when disabled", func(t *testing.T) {
		db, err := ProvideDatabase(testConfig("sqlite", ":memory:", false), WithModels(&testModel{}), nil)
		require.NoError(t, err)
		assert.False(t, db.Migrator().HasTable(&testModel{}))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := ProvideDatabase(testConfig("oracle", "dsn", false), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})
}
