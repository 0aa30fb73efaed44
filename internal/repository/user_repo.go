package repository

import (
	"context"
	"strings"
	"time"

	"vendor-service/internal/model"
	"vendor-service/prometheus"

	"gorm.io/gorm"
)

// UserRepo stores API user accounts
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a user store on top of db
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user; a taken email yields ErrDuplicate
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	var count int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&model.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

// GetByEmail returns the active user with the given email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
