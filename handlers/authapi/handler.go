package authapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/auth"
	"github.com/tuanngo/shopcms/services/logging"
	"github.com/tuanngo/shopcms/services/password"
	"github.com/tuanngo/shopcms/services/token"
	"github.com/tuanngo/shopcms/services/user"
	"go.uber.org/zap"
)

// Handler exposes the JSON auth endpoints under /api/auth. Tokens travel in
// HttpOnly cookies; request and response bodies are JSON envelopes with either
// a "data" or an "error" key.
type Handler struct {
	config  *config.Config
	auth    *auth.Service
	cookies cookieWriter
	logger  *logging.Service
}

func NewHandler(cfg *config.Config, authService *auth.Service, logger *logging.Service) *Handler {
	return &Handler{
		config:  cfg,
		auth:    authService,
		cookies: cookieWriter{config: cfg},
		logger:  logger,
	}
}

// RegisterRoutes mounts the auth endpoints on the given group. Rate limiting
// is applied by the caller so tests can exercise the handlers directly.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.POST("/register", h.Register)
	g.POST("/verify-email", h.VerifyEmail)
	g.GET("/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type userResponse struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		EmailVerified: u.EmailVerifiedAt != nil,
	}
}

func dataResponse(c echo.Context, status int, data any) error {
	return c.JSON(status, map[string]any{"data": data})
}

func errorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"error": message})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return errorResponse(c, http.StatusBadRequest, "email and password are required")
	}

	meta := auth.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}

	result, err := h.auth.Login(req.Email, req.Password, req.Remember, meta)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return errorResponse(c, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, auth.ErrAccountDisabled):
			return errorResponse(c, http.StatusForbidden, "account is disabled")
		default:
			if h.logger != nil {
				h.logger.Error("login failed", zap.Error(err))
			}
			return errorResponse(c, http.StatusInternalServerError, "login failed")
		}
	}

	h.cookies.setAuthCookies(c, result.AccessToken, result.RefreshToken, result.RefreshExpiresAt)

	return dataResponse(c, http.StatusOK, map[string]any{
		"user": toUserResponse(result.User),
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	refreshToken := readCookie(c, RefreshCookieName)
	if refreshToken == "" {
		return errorResponse(c, http.StatusUnauthorized, "no refresh token")
	}

	meta := auth.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}

	result, err := h.auth.Refresh(refreshToken, meta)
	if err != nil {
		// Any rejection means the browser's pair is dead weight.
		h.cookies.clearAuthCookies(c)

		switch {
		case errors.Is(err, auth.ErrSessionRevoked),
			errors.Is(err, token.ErrExpiredToken),
			errors.Is(err, token.ErrMalformedToken),
			errors.Is(err, token.ErrInvalidSignature),
			errors.Is(err, token.ErrInvalidToken):
			return errorResponse(c, http.StatusUnauthorized, "session is no longer valid")
		default:
			if h.logger != nil {
				h.logger.Error("refresh failed", zap.Error(err))
			}
			return errorResponse(c, http.StatusInternalServerError, "refresh failed")
		}
	}

	h.cookies.setAuthCookies(c, result.AccessToken, result.RefreshToken, result.RefreshExpiresAt)

	return dataResponse(c, http.StatusOK, map[string]any{"refreshed": true})
}

func (h *Handler) Logout(c echo.Context) error {
	h.auth.Logout(readCookie(c, RefreshCookieName))
	h.cookies.clearAuthCookies(c)

	return dataResponse(c, http.StatusOK, map[string]any{"loggedOut": true})
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Password string `json:"password"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	account, err := h.auth.Register(auth.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Gender:   req.Gender,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			return errorResponse(c, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, password.ErrPasswordTooShort):
			return errorResponse(c, http.StatusBadRequest, "password is too short")
		case errors.Is(err, user.ErrEmailTaken):
			return errorResponse(c, http.StatusConflict, "email is already registered")
		default:
			if h.logger != nil {
				h.logger.Error("registration failed", zap.Error(err))
			}
			return errorResponse(c, http.StatusInternalServerError, "registration failed")
		}
	}

	return dataResponse(c, http.StatusCreated, map[string]any{
		"user": toUserResponse(account),
	})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Code == "" {
		return errorResponse(c, http.StatusBadRequest, "email and code are required")
	}

	if err := h.auth.VerifyEmail(req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound), errors.Is(err, user.ErrVerificationFailed):
			return errorResponse(c, http.StatusBadRequest, "invalid or expired verification code")
		default:
			if h.logger != nil {
				h.logger.Error("email verification failed", zap.Error(err))
			}
			return errorResponse(c, http.StatusInternalServerError, "verification failed")
		}
	}

	return dataResponse(c, http.StatusOK, map[string]any{"verified": true})
}

// Me reports the identity behind the access token. The token comes from the
// access cookie, with an Authorization bearer header as a fallback for
// non-browser clients.
func (h *Handler) Me(c echo.Context) error {
	accessToken := readCookie(c, AccessCookieName)
	if accessToken == "" {
		header := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			accessToken = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if accessToken == "" {
		return errorResponse(c, http.StatusUnauthorized, "not authenticated")
	}

	claims, err := h.auth.WhoAmI(accessToken)
	if err != nil {
		return errorResponse(c, http.StatusUnauthorized, "not authenticated")
	}

	return dataResponse(c, http.StatusOK, map[string]any{
		"userId": claims.UserID,
		"role":   claims.Role,
	})
}
