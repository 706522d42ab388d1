package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"
)

const (
	scheme = "pbkdf2"
	keyLen = 64
)

var (
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrPasswordTooShort      = errors.New("password too short")
)

// Service derives and verifies password credentials. Stored records use the
// format pbkdf2$<iterations>$<saltHex>$<hashHex>; the plaintext is never stored.
type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	if cfg.Auth.PBKDF2Iterations <= 0 {
		cfg.Auth.PBKDF2Iterations = 120000
	}
	if cfg.Auth.SaltLength < 16 {
		cfg.Auth.SaltLength = 16
	}
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.config.Auth.MinPasswordLength {
		if s.logger != nil {
			s.logger.Warn("password validation failed: insufficient length",
				zap.Int("length", len(password)),
				zap.Int("min_required", s.config.Auth.MinPasswordLength))
		}
		return fmt.Errorf("%w: password must be at least %d characters",
			ErrPasswordTooShort, s.config.Auth.MinPasswordLength)
	}
	return nil
}

// Hash derives a fresh credential record. A new random salt is generated on
// every call, so hashing the same password twice yields different records.
func (s *Service) Hash(password string) (string, error) {
	if err := s.ValidatePassword(password); err != nil {
		return "", err
	}

	salt := make([]byte, s.config.Auth.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed: salt generation", zap.Error(err))
		}
		return "", ErrPasswordHashingFailed
	}

	iterations := s.config.Auth.PBKDF2Iterations
	saltHex := hex.EncodeToString(salt)
	derived := pbkdf2.Key([]byte(password), []byte(saltHex), iterations, keyLen, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s", scheme, iterations, saltHex, hex.EncodeToString(derived)), nil
}

// Verify re-derives the candidate against the stored record and compares in
// constant time. Malformed records verify as false; this never errors.
func (s *Service) Verify(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 || parts[0] != scheme {
		if s.logger != nil {
			s.logger.Warn("password verification failed: malformed credential record")
		}
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}

	expected, err := hex.DecodeString(parts[3])
	if err != nil || len(expected) != keyLen {
		return false
	}

	derived := pbkdf2.Key([]byte(password), []byte(parts[2]), iterations, keyLen, sha256.New)

	return subtle.ConstantTimeCompare(derived, expected) == 1
}
