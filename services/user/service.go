package user

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrVerificationFailed = errors.New("verification code invalid or expired")
)

// Service owns account lookup and bookkeeping. The auth core treats accounts
// as read/verify-only apart from last-login and email-verification mutation.
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

func (s *Service) FindByEmail(email string) (*User, error) {
	var u User
	err := s.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &u, nil
}

func (s *Service) FindByID(id uint) (*User, error) {
	var u User
	err := s.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &u, nil
}

func (s *Service) Create(u *User) error {
	if u.Role == "" {
		u.Role = RoleUser
	}

	// The unique index on email is the authority on duplicates; a pre-check
	// would race with concurrent registrations.
	if err := s.db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		if s.logger != nil {
			s.logger.Error("failed to create user", zap.Error(err))
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created", zap.Uint("user_id", u.ID))
	}

	return nil
}

// RecordLogin updates last-login bookkeeping. Callers treat this as
// best-effort; a failure is logged and must not fail the login.
func (s *Service) RecordLogin(userID uint, ip, userAgent string) error {
	err := s.db.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
		"last_login_at": time.Now(),
		"last_login_ip": ip,
		"last_login_ua": userAgent,
	}).Error

	if err != nil && s.logger != nil {
		s.logger.Warn("failed to record last login",
			zap.Uint("user_id", userID),
			zap.Error(err))
	}

	return err
}

// CreateVerificationCode issues a fresh 6-digit code for the given purpose.
func (s *Service) CreateVerificationCode(userID uint, purpose string) (*VerificationCode, error) {
	code, err := generateNumericCode(6)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	vc := VerificationCode{
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.config.Auth.VerificationExpiry),
		CreatedAt: time.Now(),
	}

	if err := s.db.Create(&vc).Error; err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	return &vc, nil
}

// ConsumeVerificationCode marks the newest matching unused, unexpired code as
// used and sets the account's EmailVerifiedAt in the same transaction.
func (s *Service) ConsumeVerificationCode(userID uint, code, purpose string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var vc VerificationCode
		err := tx.Where("user_id = ? AND code = ? AND purpose = ? AND used_at IS NULL AND expires_at >= ?",
			userID, code, purpose, time.Now()).
			Order("created_at DESC").
			First(&vc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVerificationFailed
			}
			return fmt.Errorf("database error: %w", err)
		}

		now := time.Now()
		if err := tx.Model(&vc).Update("used_at", now).Error; err != nil {
			return fmt.Errorf("failed to mark code used: %w", err)
		}

		if purpose == PurposeVerifyEmail {
			if err := tx.Model(&User{}).Where("id = ?", userID).
				Update("email_verified_at", now).Error; err != nil {
				return fmt.Errorf("failed to mark email verified: %w", err)
			}
		}

		return nil
	})
}

func generateNumericCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
