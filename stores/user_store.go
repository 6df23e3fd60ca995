package stores

import (
	"context"

	"dar-review-api/models"

	"gorm.io/gorm"
)

// GormUserStore reads applicant contact details from the shared users table.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

// GetUser returns an active user. Soft-deleted users are reported as ErrNotFound.
func (s *GormUserStore) GetUser(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := conn(ctx, s.db).
		Where("user_id = ? AND delete_at IS NULL", id).
		First(&user).Error
	if err != nil {
		return models.User{}, translateError(err)
	}
	return user, nil
}
