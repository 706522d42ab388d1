package refreshsession

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("refresh session not found")
	ErrSessionRevoked  = errors.New("refresh session revoked or expired")
)

// Service is the sole source of truth for whether a refresh token is still
// trustable. Tokens themselves are stateless; revocation lives here.
type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

// HashToken maps a raw refresh token to its storage key.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) Create(userID uint, tokenHash string, meta SessionMeta, expiresAt time.Time) (*RefreshSession, error) {
	session := RefreshSession{
		UserID:     userID,
		TokenHash:  tokenHash,
		UserAgent:  meta.UserAgent,
		IP:         meta.IP,
		DeviceInfo: meta.DeviceInfo,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}

	if err := s.db.Create(&session).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to store refresh session", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to store refresh session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("refresh session created",
			zap.Uint("user_id", userID),
			zap.Uint("session_id", session.ID),
			zap.Time("expires_at", expiresAt))
	}

	return &session, nil
}

func (s *Service) FindByHash(tokenHash string) (*RefreshSession, error) {
	var session RefreshSession
	err := s.db.Where("token_hash = ?", tokenHash).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		if s.logger != nil {
			s.logger.Error("refresh session lookup failed", zap.Error(err))
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &session, nil
}

// IsUsable reports whether the session may still mint new tokens. The store's
// expiry is authoritative over any expiry embedded in the token itself.
func (s *Service) IsUsable(session *RefreshSession) bool {
	return session != nil && session.RevokedAt == nil && session.ExpiresAt.After(time.Now())
}

// Revoke marks the session unusable. Revoking a session that is already
// revoked, or that does not exist, is a no-op; revokedAt is never cleared.
func (s *Service) Revoke(tokenHash string) error {
	result := s.db.Model(&RefreshSession{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Update("revoked_at", time.Now())

	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke refresh session", zap.Error(result.Error))
		}
		return fmt.Errorf("failed to revoke refresh session: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("refresh session revoked")
	}

	return nil
}

func (s *Service) RevokeAllForUser(userID uint) error {
	result := s.db.Model(&RefreshSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now())

	if result.Error != nil {
		return fmt.Errorf("failed to revoke user refresh sessions: %w", result.Error)
	}

	if s.logger != nil {
		s.logger.Info("all user refresh sessions revoked",
			zap.Uint("user_id", userID),
			zap.Int64("count", result.RowsAffected))
	}

	return nil
}

// Rotate revokes the session identified by oldHash and records its
// replacement as one atomic unit. The revoke is a conditional update on
// revoked_at, so of two rotations racing on the same token exactly one
// commits; the loser observes ErrSessionRevoked and no replacement row.
func (s *Service) Rotate(oldHash, newHash string, meta SessionMeta, expiresAt time.Time) (*RefreshSession, error) {
	var session RefreshSession

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&RefreshSession{}).
			Where("token_hash = ? AND revoked_at IS NULL", oldHash).
			Update("revoked_at", time.Now())
		if result.Error != nil {
			return fmt.Errorf("failed to revoke old session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionRevoked
		}

		var old RefreshSession
		if err := tx.Where("token_hash = ?", oldHash).First(&old).Error; err != nil {
			return fmt.Errorf("failed to load old session: %w", err)
		}

		session = RefreshSession{
			UserID:     old.UserID,
			TokenHash:  newHash,
			UserAgent:  meta.UserAgent,
			IP:         meta.IP,
			DeviceInfo: meta.DeviceInfo,
			ExpiresAt:  expiresAt,
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("failed to store replacement session: %w", err)
		}

		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrSessionRevoked) && s.logger != nil {
			s.logger.Error("refresh session rotation failed", zap.Error(err))
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("refresh session rotated",
			zap.Uint("user_id", session.UserID),
			zap.Uint("session_id", session.ID))
	}

	return &session, nil
}

// CleanupExpired physically removes sessions whose expiry is older than the
// retention window. Active history is never touched.
func (s *Service) CleanupExpired() error {
	cutoff := time.Now().Add(-s.config.RefreshSession.RetainExpired)

	result := s.db.Where("expires_at < ?", cutoff).Delete(&RefreshSession{})
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to cleanup expired refresh sessions", zap.Error(result.Error))
		}
		return fmt.Errorf("failed to cleanup expired sessions: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("cleaned up expired refresh sessions",
			zap.Int64("count", result.RowsAffected))
	}

	return nil
}

func (s *Service) StartCleanupWorker() {
	go func() {
		ticker := time.NewTicker(s.config.RefreshSession.CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := s.CleanupExpired(); err != nil && s.logger != nil {
				s.logger.Error("refresh session cleanup worker failed", zap.Error(err))
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("started refresh session cleanup worker",
			zap.Duration("interval", s.config.RefreshSession.CleanupInterval))
	}
}
