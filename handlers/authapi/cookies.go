package authapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tuanngo/shopcms/config"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"

	// The refresh cookie is scoped to the auth endpoints so the browser never
	// attaches the long-lived credential to ordinary page or API traffic.
	refreshCookiePath = "/api/auth"
)

type cookieWriter struct {
	config *config.Config
}

func (w *cookieWriter) secure() bool {
	return w.config.RefreshSession.CookieSecure || w.config.IsProduction()
}

func (w *cookieWriter) setAuthCookies(c echo.Context, accessToken, refreshToken string, refreshExpiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     AccessCookieName,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(w.config.JWT.AccessExpiry.Seconds()),
		HttpOnly: true,
		Secure:   w.secure(),
		SameSite: http.SameSiteLaxMode,
	})

	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Path:     refreshCookiePath,
		Expires:  refreshExpiresAt,
		MaxAge:   int(time.Until(refreshExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   w.secure(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (w *cookieWriter) clearAuthCookies(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     AccessCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   w.secure(),
		SameSite: http.SameSiteLaxMode,
	})

	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   w.secure(),
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
