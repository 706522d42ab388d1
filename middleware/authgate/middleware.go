package authgate

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tuanngo/shopcms/services/logging"
	"github.com/tuanngo/shopcms/services/token"
	"github.com/tuanngo/shopcms/services/user"
	"go.uber.org/zap"
)

const (
	UserIDKey = "_gate_user_id"
	RoleKey   = "_gate_role"
	ClaimsKey = "_gate_claims"

	accessCookieName = "access_token"

	loginPath   = "/login"
	accountPath = "/account"
	cmsPrefix   = "/cms"
)

// Verifier checks an access token and returns its claims. Satisfied by the
// token service.
type Verifier interface {
	VerifyAccess(tokenString string) (*token.Claims, error)
}

type Config struct {
	Tokens Verifier
	Logger *logging.Service
}

// Middleware guards page navigation. It reads the access cookie, resolves the
// visitor to anonymous or an authenticated role, and enforces the page rules:
// /account and /cms need a login, /cms additionally needs the ADMIN role, and
// a logged-in visitor has no business on /login. A token that fails
// verification counts as anonymous, so a broken or tampered cookie can never
// open a protected page.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			if skipPath(path) {
				return next(c)
			}

			claims := resolveClaims(c, cfg)
			if claims != nil {
				c.Set(UserIDKey, claims.UserID)
				c.Set(RoleKey, claims.Role)
				c.Set(ClaimsKey, claims)
			}

			switch {
			case isProtected(path):
				if claims == nil {
					return redirectToLogin(c, path)
				}
				if strings.HasPrefix(path, cmsPrefix) && claims.Role != user.RoleAdmin {
					if cfg.Logger != nil {
						cfg.Logger.Warn("cms access denied",
							zap.Uint("user_id", claims.UserID),
							zap.String("role", claims.Role))
					}
					return c.Redirect(http.StatusFound, "/")
				}

			case path == loginPath:
				if claims != nil {
					return c.Redirect(http.StatusFound, accountPath)
				}
			}

			return next(c)
		}
	}
}

func resolveClaims(c echo.Context, cfg Config) *token.Claims {
	cookie, err := c.Cookie(accessCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims, err := cfg.Tokens.VerifyAccess(cookie.Value)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Debug("access cookie rejected", zap.Error(err))
		}
		return nil
	}

	return claims
}

// skipPath exempts API routes and static assets; the API authenticates per
// request and assets are public.
func skipPath(path string) bool {
	if strings.HasPrefix(path, "/api/") {
		return true
	}
	if strings.HasPrefix(path, "/assets/") || strings.HasPrefix(path, "/static/") {
		return true
	}

	switch path {
	case "/favicon.ico", "/robots.txt":
		return true
	}

	return false
}

func isProtected(path string) bool {
	return strings.HasPrefix(path, accountPath) || strings.HasPrefix(path, cmsPrefix)
}

func redirectToLogin(c echo.Context, from string) error {
	target := loginPath + "?from=" + url.QueryEscape(from)
	return c.Redirect(http.StatusFound, target)
}

func GetUserID(c echo.Context) uint {
	if userID, ok := c.Get(UserIDKey).(uint); ok {
		return userID
	}
	return 0
}

func GetRole(c echo.Context) string {
	if role, ok := c.Get(RoleKey).(string); ok {
		return role
	}
	return ""
}

func GetClaims(c echo.Context) *token.Claims {
	if claims, ok := c.Get(ClaimsKey).(*token.Claims); ok {
		return claims
	}
	return nil
}
