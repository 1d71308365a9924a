package repositories

import (
	"context"
	"time"

	"docshare/models"

	"gorm.io/gorm"
)

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, tx *gorm.DB, link *models.SharedLink) error {
	return use(r.db, tx, ctx).Create(link).Error
}

func (r *linkRepository) GetByToken(ctx context.Context, tx *gorm.DB, token string) (models.SharedLink, error) {
	var link models.SharedLink
	err := use(r.db, tx, ctx).
		Where("token = ? AND is_active = ?", token, true).
		First(&link).Error
	return link, err
}

func (r *linkRepository) GetByIDAndUser(ctx context.Context, tx *gorm.DB, linkID, userID uint) (models.SharedLink, error) {
	var link models.SharedLink
	err := use(r.db, tx, ctx).
		Where("id = ? AND user_id = ?", linkID, userID).
		First(&link).Error
	return link, err
}

func (r *linkRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]LinkWithDocument, error) {
	var links []LinkWithDocument
	err := use(r.db, tx, ctx).Model(&models.SharedLink{}).
		Select("shared_links.*, documents.original_filename, documents.file_size, documents.mime_type").
		Joins("JOIN documents ON documents.id = shared_links.document_id").
		Where("shared_links.user_id = ? AND shared_links.is_active = ?", userID, true).
		Order("shared_links.created_at DESC").
		Find(&links).Error
	return links, err
}

func (r *linkRepository) Deactivate(ctx context.Context, tx *gorm.DB, linkID, userID uint) (int64, error) {
	res := use(r.db, tx, ctx).Model(&models.SharedLink{}).
		Where("id = ? AND user_id = ?", linkID, userID).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ConsumeView is the single guarded statement that makes the max-views
// constraint race-free: the increment and the bound check happen in one
// UPDATE, so two concurrent consumers can never both take the last view.
func (r *linkRepository) ConsumeView(ctx context.Context, tx *gorm.DB, linkID uint, now time.Time) (bool, error) {
	res := use(r.db, tx, ctx).Model(&models.SharedLink{}).
		Where("id = ? AND is_active = ? AND (max_views IS NULL OR view_count < max_views)", linkID, true).
		Updates(map[string]interface{}{
			"view_count":    gorm.Expr("view_count + 1"),
			"last_accessed": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
