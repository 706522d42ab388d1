package user

import (
	"time"
)

const (
	RoleUser   = "USER"
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
)

const PurposeVerifyEmail = "VERIFY_EMAIL"

type User struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name            string     `json:"name" gorm:"size:255"`
	Phone           string     `json:"phone" gorm:"size:32;index"`
	Gender          string     `json:"gender" gorm:"size:16"`
	AvatarURL       string     `json:"avatar_url" gorm:"size:500"`
	PasswordHash    string     `json:"-" gorm:"size:512;not null"`
	Role            string     `json:"role" gorm:"size:16;not null;default:USER"`
	// No column default: gorm would skip a zero-valued (disabled) field on
	// insert and the account would come back active.
	IsActive        bool       `json:"is_active" gorm:"not null"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	LastLoginIP     string     `json:"last_login_ip" gorm:"size:64"`
	LastLoginUA     string     `json:"last_login_ua" gorm:"size:500"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// VerificationCode is a short-lived one-shot code mailed to the user, e.g. for
// email verification at registration.
type VerificationCode struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	Code      string     `json:"-" gorm:"size:16;not null"`
	Purpose   string     `json:"purpose" gorm:"size:32;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}
