package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront-api/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindMany(ctx context.Context, userIDs []string) ([]*model.User, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) FindMany(ctx context.Context, userIDs []string) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&users).
		Error

	if err != nil {
		return nil, err
	}

	return users, nil
}
