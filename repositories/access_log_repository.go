package repositories

import (
	"context"

	"docshare/models"

	"gorm.io/gorm"
)

type accessLogRepository struct {
	db *gorm.DB
}

func NewAccessLogRepository(db *gorm.DB) AccessLogRepository {
	return &accessLogRepository{db: db}
}

func (r *accessLogRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.AccessLog) error {
	return use(r.db, tx, ctx).Create(entry).Error
}

func (r *accessLogRepository) ListByLink(ctx context.Context, tx *gorm.DB, linkID uint, limit int) ([]models.AccessLog, error) {
	var entries []models.AccessLog
	err := use(r.db, tx, ctx).
		Where("shared_link_id = ?", linkID).
		Order("accessed_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
