// Package shopcms wires the storefront auth service: password credentials,
// short-lived access tokens, rotating refresh sessions and the page gate in
// front of /account and /cms.
package shopcms

import (
	"github.com/tuanngo/shopcms/app"
	"github.com/tuanngo/shopcms/config"
)

type App = app.App

// New returns an application builder. Call Build then Run.
func New() *app.AppBuilder {
	return app.NewApp()
}

// NewWithConfig returns a builder preloaded with the given config.
func NewWithConfig(cfg *config.Config) *app.AppBuilder {
	return app.NewApp().WithConfig(cfg)
}
