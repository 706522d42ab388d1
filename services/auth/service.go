package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mileusna/useragent"
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"github.com/tuanngo/shopcms/services/mail"
	"github.com/tuanngo/shopcms/services/password"
	"github.com/tuanngo/shopcms/services/refreshsession"
	"github.com/tuanngo/shopcms/services/token"
	"github.com/tuanngo/shopcms/services/user"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// responses cannot be used to probe which addresses have accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidEmail       = errors.New("invalid email address")

	// ErrSessionRevoked mirrors the store verdict: the token is structurally
	// fine but no longer trusted.
	ErrSessionRevoked = refreshsession.ErrSessionRevoked
)

// RequestMeta carries per-request client details recorded with sessions and
// last-login bookkeeping.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	Role             string
	User             *user.User
	RefreshExpiresAt time.Time
}

type RefreshResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type RegisterInput struct {
	Email    string
	Name     string
	Phone    string
	Gender   string
	Password string
}

// Service coordinates the credential hasher, token signer and refresh session
// store for the login, refresh, logout and who-am-i flows. It owns the session
// state machine; all durable state lives in the stores.
type Service struct {
	config    *config.Config
	users     *user.Service
	passwords *password.Service
	tokens    *token.Service
	sessions  *refreshsession.Service
	mailer    mail.Sender
	logger    *logging.Service
}

func NewService(
	cfg *config.Config,
	users *user.Service,
	passwords *password.Service,
	tokens *token.Service,
	sessions *refreshsession.Service,
	logger *logging.Service,
) *Service {
	return &Service{
		config:    cfg,
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		sessions:  sessions,
		logger:    logger,
	}
}

func (s *Service) SetMailer(mailer mail.Sender) {
	s.mailer = mailer
}

// Login verifies the credential and mints the access/refresh token pair. The
// refresh session is persisted by hash; last-login bookkeeping is best-effort
// and never fails the login.
func (s *Service) Login(email, plaintext string, remember bool, meta RequestMeta) (*LoginResult, error) {
	account, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			if s.logger != nil {
				s.logger.Warn("login failed: unknown email")
			}
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.IsActive {
		if s.logger != nil {
			s.logger.Warn("login failed: account disabled", zap.Uint("user_id", account.ID))
		}
		return nil, ErrAccountDisabled
	}

	if !s.passwords.Verify(plaintext, account.PasswordHash) {
		if s.logger != nil {
			s.logger.Warn("login failed: wrong password", zap.Uint("user_id", account.ID))
		}
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.SignAccess(account.ID, account.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.tokens.RefreshExpiry(remember))
	refreshToken, err := s.tokens.SignRefresh(account.ID, account.Role, expiresAt)
	if err != nil {
		return nil, err
	}

	sessionMeta := refreshsession.SessionMeta{
		UserAgent:  meta.UserAgent,
		IP:         meta.IP,
		DeviceInfo: deviceLabel(meta.UserAgent),
	}
	if _, err := s.sessions.Create(account.ID, refreshsession.HashToken(refreshToken), sessionMeta, expiresAt); err != nil {
		return nil, err
	}

	// Best effort only.
	_ = s.users.RecordLogin(account.ID, meta.IP, meta.UserAgent)

	if s.logger != nil {
		s.logger.Info("login succeeded",
			zap.Uint("user_id", account.ID),
			zap.String("role", account.Role),
			zap.Bool("remember", remember))
	}

	return &LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		Role:             account.Role,
		User:             account,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// Refresh rotates the presented refresh token. The signature check runs first
// and rejects forgeries without touching the store; the store then has the
// final word on revocation and expiry. The replacement session inherits the
// absolute expiry of the one it replaces, so the remember-me horizon is
// preserved and never silently extended.
func (s *Service) Refresh(refreshToken string, meta RequestMeta) (*RefreshResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	oldHash := refreshsession.HashToken(refreshToken)
	session, err := s.sessions.FindByHash(oldHash)
	if err != nil {
		if errors.Is(err, refreshsession.ErrSessionNotFound) {
			if s.logger != nil {
				s.logger.Warn("refresh rejected: no session for presented token",
					zap.Uint("user_id", claims.UserID))
			}
			return nil, ErrSessionRevoked
		}
		return nil, err
	}

	if !s.sessions.IsUsable(session) {
		if s.logger != nil {
			s.logger.Warn("refresh rejected: session revoked or expired",
				zap.Uint("user_id", claims.UserID),
				zap.Uint("session_id", session.ID))
		}
		return nil, ErrSessionRevoked
	}

	expiresAt := session.ExpiresAt
	newRefreshToken, err := s.tokens.SignRefresh(claims.UserID, claims.Role, expiresAt)
	if err != nil {
		return nil, err
	}

	sessionMeta := refreshsession.SessionMeta{
		UserAgent:  meta.UserAgent,
		IP:         meta.IP,
		DeviceInfo: deviceLabel(meta.UserAgent),
	}
	if _, err := s.sessions.Rotate(oldHash, refreshsession.HashToken(newRefreshToken), sessionMeta, expiresAt); err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.SignAccess(claims.UserID, claims.Role)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("refresh session rotated", zap.Uint("user_id", claims.UserID))
	}

	return &RefreshResult{
		AccessToken:      accessToken,
		RefreshToken:     newRefreshToken,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// Logout revokes the presented refresh token's session when one exists. It is
// unconditionally safe: invalid, expired or missing tokens are ignored.
func (s *Service) Logout(refreshToken string) {
	if refreshToken == "" {
		return
	}

	if err := s.sessions.Revoke(refreshsession.HashToken(refreshToken)); err != nil && s.logger != nil {
		s.logger.Warn("logout: session revocation failed", zap.Error(err))
	}
}

// WhoAmI verifies the access token without touching any store.
func (s *Service) WhoAmI(accessToken string) (*token.Claims, error) {
	return s.tokens.VerifyAccess(accessToken)
}

// Register creates a fresh USER account and issues an email verification
// code. Mail delivery is best-effort.
func (s *Service) Register(input RegisterInput) (*user.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	record, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	account := &user.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Gender:       input.Gender,
		PasswordHash: record,
		Role:         user.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(account); err != nil {
		return nil, err
	}

	code, err := s.users.CreateVerificationCode(account.ID, user.PurposeVerifyEmail)
	if err != nil {
		return nil, fmt.Errorf("account created but verification code failed: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerificationCode(account.Email, account.Name, code.Code); err != nil && s.logger != nil {
			s.logger.Warn("failed to send verification mail",
				zap.Uint("user_id", account.ID),
				zap.Error(err))
		}
	}

	if s.logger != nil {
		s.logger.Info("user registered", zap.Uint("user_id", account.ID))
	}

	return account, nil
}

// VerifyEmail consumes a pending verification code for the account.
func (s *Service) VerifyEmail(email, code string) error {
	account, err := s.users.FindByEmail(email)
	if err != nil {
		return err
	}

	return s.users.ConsumeVerificationCode(account.ID, code, user.PurposeVerifyEmail)
}

// deviceLabel condenses a raw user-agent string into a short human label.
func deviceLabel(ua string) string {
	if ua == "" {
		return ""
	}

	parsed := useragent.Parse(ua)
	if parsed.Name == "" {
		return ""
	}

	if parsed.OS == "" {
		return parsed.Name
	}

	return parsed.Name + " on " + parsed.OS
}
