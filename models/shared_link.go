package models

import (
	"time"

	"gorm.io/gorm"
)

// SharedLink is a bearer capability for one document. The token is the whole
// secret; the optional constraints (password hash, expiry, max views) narrow
// what possession of the token grants. UserID duplicates the document owner
// for cheap ownership checks on deactivate/logs.
type SharedLink struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	DocumentID    uint        `gorm:"index;not null" json:"document_id"`
	UserID        uint        `gorm:"index;not null" json:"user_id"`
	Token         string      `gorm:"size:64;uniqueIndex;not null" json:"token"`
	PasswordHash  string      `gorm:"size:255" json:"-"`
	ExpiresAt     *time.Time  `json:"expires_at"`
	MaxViews      *int        `json:"max_views"`
	ViewCount     int         `gorm:"default:0;not null" json:"view_count"`
	AllowDownload bool        `gorm:"default:true" json:"allow_download"`
	IsActive      bool        `gorm:"default:true;index" json:"is_active"`
	LastAccessed  *time.Time  `json:"last_accessed"`
	CreatedAt     time.Time   `json:"created_at"`
	AccessLogs    []AccessLog `json:"-"`
}

func (l *SharedLink) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	return nil
}

// HasPassword reports whether access requires a password.
func (l *SharedLink) HasPassword() bool {
	return l.PasswordHash != ""
}

// Expired evaluates the expiry constraint against the given wall-clock time.
// Expiry is never cached or stored; every caller re-evaluates it freshly.
func (l *SharedLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// ViewsExhausted reports whether the max-views constraint is spent.
func (l *SharedLink) ViewsExhausted() bool {
	return l.MaxViews != nil && l.ViewCount >= *l.MaxViews
}
