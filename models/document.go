package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is the metadata row for an uploaded file. The blob itself lives on
// disk at FilePath. Deleting a document only flips IsDeleted; the row stays
// for audit purposes even when the physical file is gone.
type Document struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	UserID           uint         `gorm:"index;not null" json:"user_id"`
	Filename         string       `gorm:"size:512;not null" json:"filename"`
	OriginalFilename string       `gorm:"size:512;not null" json:"original_filename"`
	FilePath         string       `gorm:"size:1024;not null" json:"-"`
	FileSize         int64        `gorm:"not null" json:"file_size"`
	MimeType         string       `gorm:"size:128;not null" json:"mime_type"`
	Description      string       `gorm:"size:1024" json:"description"`
	ThumbnailPath    string       `gorm:"size:1024" json:"-"`
	IsDeleted        bool         `gorm:"default:false;index" json:"-"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	SharedLinks      []SharedLink `json:"-"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return nil
}

func (d *Document) BeforeUpdate(tx *gorm.DB) error {
	d.UpdatedAt = time.Now()
	return nil
}
