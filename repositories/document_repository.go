package repositories

import (
	"context"
	"errors"
	"time"

	"docshare/models"

	"gorm.io/gorm"
)

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error {
	return use(r.db, tx, ctx).Create(doc).Error
}

func (r *documentRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Document, error) {
	var docs []models.Document
	err := use(r.db, tx, ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) GetByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint) (models.Document, error) {
	var doc models.Document
	err := use(r.db, tx, ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", docID, userID, false).
		First(&doc).Error
	return doc, err
}

func (r *documentRepository) GetByID(ctx context.Context, tx *gorm.DB, docID uint) (models.Document, error) {
	var doc models.Document
	err := use(r.db, tx, ctx).
		Where("id = ? AND is_deleted = ?", docID, false).
		First(&doc).Error
	return doc, err
}

func (r *documentRepository) UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint, updates map[string]interface{}) (int64, error) {
	res := use(r.db, tx, ctx).Model(&models.Document{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", docID, userID, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *documentRepository) SoftDeleteByIDAndUser(ctx context.Context, tx *gorm.DB, docID, userID uint) (models.Document, bool, error) {
	db := use(r.db, tx, ctx)

	var doc models.Document
	if err := db.Where("id = ? AND user_id = ? AND is_deleted = ?", docID, userID, false).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Document{}, false, nil
		}
		return models.Document{}, false, err
	}

	res := db.Model(&models.Document{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", docID, userID, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return models.Document{}, false, res.Error
	}
	return doc, res.RowsAffected > 0, nil
}

func (r *documentRepository) StatsByUser(ctx context.Context, tx *gorm.DB, userID uint, recentSince time.Time) (DocumentStats, error) {
	var stats DocumentStats
	err := use(r.db, tx, ctx).Model(&models.Document{}).
		Select("COUNT(*) AS total_documents, COALESCE(SUM(file_size), 0) AS total_size, COUNT(CASE WHEN created_at > ? THEN 1 END) AS recent_uploads", recentSince).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Scan(&stats).Error
	return stats, err
}
