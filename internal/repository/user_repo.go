package repository

import (
	"context"

	"servicelink/internal/model"

	"gorm.io/gorm"
)

// UserRepository covers the small user surface this API needs: the startup
// admin seed. Attribution rows are loaded through gorm preloads; account
// management lives in the identity service.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Count(&total).Error
	return total, err
}
