package repositories

import (
	"context"

	"docshare/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return use(r.db, tx, ctx).Create(user).Error
}

func (r *userRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error) {
	var user models.User
	err := use(r.db, tx, ctx).Where("email = ? AND is_active = ?", email, true).First(&user).Error
	return user, err
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := use(r.db, tx, ctx).Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	return user, err
}

func (r *userRepository) GetByProvider(ctx context.Context, tx *gorm.DB, provider, providerID string) (models.User, error) {
	var user models.User
	err := use(r.db, tx, ctx).Where("provider = ? AND provider_id = ?", provider, providerID).First(&user).Error
	return user, err
}

func (r *userRepository) UpdateByID(ctx context.Context, tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	return use(r.db, tx, ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}
