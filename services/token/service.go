package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Claims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Service signs and verifies the two stateless token classes. Access and
// refresh tokens use separate secrets, so one leaked signing key cannot forge
// tokens of the other class.
type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.JWT.AccessExpiry
}

func (s *Service) RefreshExpiry(remember bool) time.Duration {
	if remember {
		return s.config.JWT.RememberMeExpiry
	}
	return s.config.JWT.RefreshExpiry
}

func (s *Service) SignAccess(userID uint, role string) (string, error) {
	expiresAt := time.Now().Add(s.config.JWT.AccessExpiry)
	return s.sign(userID, role, TypeAccess, expiresAt, s.config.JWT.AccessSecret)
}

// SignRefresh takes an absolute expiry so rotation can preserve the horizon of
// the session it replaces.
func (s *Service) SignRefresh(userID uint, role string, expiresAt time.Time) (string, error) {
	return s.sign(userID, role, TypeRefresh, expiresAt, s.config.JWT.RefreshSecret)
}

func (s *Service) sign(userID uint, role, tokenType string, expiresAt time.Time, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.config.JWT.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  []string{s.config.JWT.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign token",
				zap.String("token_type", tokenType),
				zap.Error(err))
		}
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

func (s *Service) VerifyAccess(tokenString string) (*Claims, error) {
	return s.verify(tokenString, TypeAccess, s.config.JWT.AccessSecret)
}

func (s *Service) VerifyRefresh(tokenString string) (*Claims, error) {
	return s.verify(tokenString, TypeRefresh, s.config.JWT.RefreshSecret)
}

func (s *Service) verify(tokenString, tokenType, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(s.config.JWT.Issuer),
		jwt.WithAudience(s.config.JWT.Audience),
	)

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("token verification failed",
				zap.String("token_type", tokenType),
				zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenType {
		if s.logger != nil {
			s.logger.Warn("token verification failed: wrong token class",
				zap.String("expected", tokenType),
				zap.String("got", claims.TokenType))
		}
		return nil, ErrInvalidToken
	}

	return claims, nil
}
