package models

import (
	"time"

	"gorm.io/gorm"
)

// Access types recorded for shared link attempts.
const (
	AccessTypeView           = "view"
	AccessTypeDownload       = "download"
	AccessTypeFailedPassword = "failed_password"
)

// AccessLog is an append-only audit record of one access attempt against a
// shared link. Rows are never updated or deleted after the recording
// transaction commits.
type AccessLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SharedLinkID uint      `gorm:"index;not null" json:"shared_link_id"`
	IPAddress    string    `gorm:"size:45" json:"ip_address"`
	UserAgent    string    `gorm:"size:512" json:"user_agent"`
	AccessType   string    `gorm:"size:20;not null" json:"access_type"`
	Success      bool      `gorm:"not null" json:"success"`
	AccessedAt   time.Time `json:"accessed_at"`
}

func (a *AccessLog) BeforeCreate(tx *gorm.DB) error {
	if a.AccessedAt.IsZero() {
		a.AccessedAt = time.Now()
	}
	return nil
}
