package authapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/auth"
	"github.com/tuanngo/shopcms/services/password"
	"github.com/tuanngo/shopcms/services/refreshsession"
	"github.com/tuanngo/shopcms/services/token"
	"github.com/tuanngo/shopcms/services/user"
	"github.com/tuanngo/shopcms/testutils"
	"gorm.io/gorm"
)

type handlerEnv struct {
	echo *echo.Echo
	db   *gorm.DB
	cfg  *config.Config
	auth *auth.Service
}

func setupHandler(t *testing.T) *handlerEnv {
	db := testutils.SetupTestDB(t, &user.User{}, &user.VerificationCode{}, &refreshsession.RefreshSession{})
	cfg := testutils.GetTestConfig()

	users := user.NewService(db, cfg, nil)
	authService := auth.NewService(cfg,
		users,
		password.NewService(cfg, nil),
		token.NewService(cfg, nil),
		refreshsession.NewService(db, cfg, nil),
		nil)

	e := echo.New()
	NewHandler(cfg, authService, nil).RegisterRoutes(e.Group("/api/auth"))

	return &handlerEnv{echo: e, db: db, cfg: cfg, auth: authService}
}

func (env *handlerEnv) seedUser(t *testing.T, email, plaintext, role string) *user.User {
	t.Helper()

	passwords := password.NewService(env.cfg, nil)
	record, err := passwords.Hash(plaintext)
	require.NoError(t, err)

	u := &user.User{Email: email, PasswordHash: record, Role: role, IsActive: true}
	require.NoError(t, user.NewService(env.db, env.cfg, nil).Create(u))
	return u
}

func (env *handlerEnv) request(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginEndpoint(t *testing.T) {
	env := setupHandler(t)
	env.seedUser(t, "a@b.com", "secret123", user.RoleUser)

	t.Run("success sets both cookies", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/login",
			`{"email":"a@b.com","password":"secret123"}`)

		require.Equal(t, http.StatusOK, rec.Code)

		access := findCookie(t, rec, AccessCookieName)
		require.NotNil(t, access)
		assert.Equal(t, "/", access.Path)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
		assert.False(t, access.Secure)

		refresh := findCookie(t, rec, RefreshCookieName)
		require.NotNil(t, refresh)
		assert.Equal(t, "/api/auth", refresh.Path)
		assert.True(t, refresh.HttpOnly)
		assert.NotEmpty(t, refresh.Value)

		body := decodeBody(t, rec)
		data := body["data"].(map[string]any)
		userPayload := data["user"].(map[string]any)
		assert.Equal(t, "a@b.com", userPayload["email"])
		assert.Equal(t, user.RoleUser, userPayload["role"])
	})

	t.Run("secure flag follows production env", func(t *testing.T) {
		env := setupHandler(t)
		env.cfg.App.Env = "production"
		env.seedUser(t, "p@b.com", "secret123", user.RoleUser)

		rec := env.request(http.MethodPost, "/api/auth/login",
			`{"email":"p@b.com","password":"secret123"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, findCookie(t, rec, AccessCookieName).Secure)
		assert.True(t, findCookie(t, rec, RefreshCookieName).Secure)
	})

	t.Run("bad credentials", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/login",
			`{"email":"a@b.com","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, findCookie(t, rec, AccessCookieName))
		assert.Equal(t, "invalid email or password", decodeBody(t, rec)["error"])
	})

	t.Run("unknown email gets the same message", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/login",
			`{"email":"ghost@b.com","password":"secret123"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid email or password", decodeBody(t, rec)["error"])
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/login", `{"email":"a@b.com"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("disabled account", func(t *testing.T) {
		u := env.seedUser(t, "off@b.com", "secret123", user.RoleUser)
		require.NoError(t, env.db.Model(u).Update("is_active", false).Error)

		rec := env.request(http.MethodPost, "/api/auth/login",
			`{"email":"off@b.com","password":"secret123"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := setupHandler(t)
	env.seedUser(t, "a@b.com", "secret123", user.RoleUser)

	login := env.request(http.MethodPost, "/api/auth/login",
		`{"email":"a@b.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, login.Code)
	refreshCookie := findCookie(t, login, RefreshCookieName)
	require.NotNil(t, refreshCookie)

	t.Run("rotates cookies", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/refresh", "", refreshCookie)

		require.Equal(t, http.StatusOK, rec.Code)
		newRefresh := findCookie(t, rec, RefreshCookieName)
		require.NotNil(t, newRefresh)
		assert.NotEqual(t, refreshCookie.Value, newRefresh.Value)
		assert.NotNil(t, findCookie(t, rec, AccessCookieName))
	})

	t.Run("replay of the rotated cookie is rejected and cookies cleared", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/refresh", "", refreshCookie)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		cleared := findCookie(t, rec, RefreshCookieName)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/refresh", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage cookie", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/refresh", "",
			&http.Cookie{Name: RefreshCookieName, Value: "garbage"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	env := setupHandler(t)
	env.seedUser(t, "a@b.com", "secret123", user.RoleUser)

	login := env.request(http.MethodPost, "/api/auth/login",
		`{"email":"a@b.com","password":"secret123"}`)
	refreshCookie := findCookie(t, login, RefreshCookieName)
	require.NotNil(t, refreshCookie)

	t.Run("clears cookies and kills the session", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/logout", "", refreshCookie)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, findCookie(t, rec, AccessCookieName).Value)
		assert.Empty(t, findCookie(t, rec, RefreshCookieName).Value)

		replay := env.request(http.MethodPost, "/api/auth/refresh", "", refreshCookie)
		assert.Equal(t, http.StatusUnauthorized, replay.Code)
	})

	t.Run("logout without a session still succeeds", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/logout", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRegisterEndpoint(t *testing.T) {
	env := setupHandler(t)

	t.Run("creates the account", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/register",
			`{"email":"New@B.com","name":"Alice","password":"secret123"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]any)
		userPayload := data["user"].(map[string]any)
		assert.Equal(t, "new@b.com", userPayload["email"])
		assert.Equal(t, false, userPayload["emailVerified"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/register",
			`{"email":"new@b.com","password":"secret123"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/register",
			`{"email":"x@b.com","password":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/register",
			`{"email":"nope","password":"secret123"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVerifyEmailEndpoint(t *testing.T) {
	env := setupHandler(t)

	rec := env.request(http.MethodPost, "/api/auth/register",
		`{"email":"v@b.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var code user.VerificationCode
	require.NoError(t, env.db.First(&code).Error)

	t.Run("valid code", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/verify-email",
			`{"email":"v@b.com","code":"`+code.Code+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("replayed code", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/verify-email",
			`{"email":"v@b.com","code":"`+code.Code+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.request(http.MethodPost, "/api/auth/verify-email", `{"email":"v@b.com"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	env := setupHandler(t)
	seeded := env.seedUser(t, "a@b.com", "secret123", user.RoleAdmin)

	login := env.request(http.MethodPost, "/api/auth/login",
		`{"email":"a@b.com","password":"secret123"}`)
	accessCookie := findCookie(t, login, AccessCookieName)
	require.NotNil(t, accessCookie)

	t.Run("cookie auth", func(t *testing.T) {
		rec := env.request(http.MethodGet, "/api/auth/me", "", accessCookie)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, float64(seeded.ID), data["userId"])
		assert.Equal(t, user.RoleAdmin, data["role"])
	})

	t.Run("bearer auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessCookie.Value)
		rec := httptest.NewRecorder()
		env.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no token", func(t *testing.T) {
		rec := env.request(http.MethodGet, "/api/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh token is not accepted", func(t *testing.T) {
		refreshCookie := findCookie(t, login, RefreshCookieName)
		require.NotNil(t, refreshCookie)

		rec := env.request(http.MethodGet, "/api/auth/me", "",
			&http.Cookie{Name: AccessCookieName, Value: refreshCookie.Value})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
