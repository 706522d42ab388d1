package refreshsession

import (
	"time"
)

// RefreshSession is the durable record of one issued refresh token. The raw
// token never touches the database; only its SHA-256 hash is stored. Rows are
// revoked in place, never deleted, except by the retention cleanup.
type RefreshSession struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"not null;index"`
	TokenHash  string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	UserAgent  string     `json:"user_agent" gorm:"size:500"`
	IP         string     `json:"ip" gorm:"size:64"`
	DeviceInfo string     `json:"device_info" gorm:"size:200"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt  *time.Time `json:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (RefreshSession) TableName() string {
	return "refresh_sessions"
}

// SessionMeta carries optional request metadata recorded with a session.
type SessionMeta struct {
	UserAgent  string
	IP         string
	DeviceInfo string
}
