package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"userapi/internal/app/ds"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

func toPublic(u user) ds.User {
	return ds.User{ID: u.ID, Email: u.Email, Name: u.Name, IsActive: u.IsActive, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (r *Repository) CreateUser(ctx context.Context, in ds.UserCreate) (ds.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" {
		return ds.User{}, ErrEmptyEmail
	}
	if name == "" {
		return ds.User{}, ErrEmptyName
	}
	db := r.db.WithContext(ctx)
	var exists int64
	if err := db.Model(&user{}).Where("email = ?", email).Count(&exists).Error; err != nil {
		return ds.User{}, err
	}
	if exists > 0 {
		return ds.User{}, ErrEmailTaken
	}
	u := user{Email: email, Name: name, IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ds.User{}, ErrEmailTaken
		}
		return ds.User{}, err
	}
	return toPublic(u), nil
}

// ListUsers pages through users ordered by id. limit is clamped to 1..MaxListLimit.
func (r *Repository) ListUsers(ctx context.Context, skip, limit int) ([]ds.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	var rows []user
	if err := r.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]ds.User, 0, len(rows))
	for _, u := range rows {
		result = append(result, toPublic(u))
	}
	return result, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (ds.User, error) {
	var u user
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ds.User{}, ErrUserNotFound
		}
		return ds.User{}, err
	}
	return toPublic(u), nil
}

// UpdateUser applies the non-nil fields of in and stamps updated_at.
// An update with no fields returns the current row untouched.
func (r *Repository) UpdateUser(ctx context.Context, id int64, in ds.UserUpdate) (ds.User, error) {
	var out user
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			v := strings.TrimSpace(*in.Name)
			if v == "" {
				return ErrEmptyName
			}
			updates["name"] = v
		}
		if in.Email != nil {
			v := normalizeEmail(*in.Email)
			if v == "" {
				return ErrEmptyEmail
			}
			if v != out.Email {
				var taken int64
				if err := tx.Model(&user{}).Where("email = ? AND id <> ?", v, id).Count(&taken).Error; err != nil {
					return err
				}
				if taken > 0 {
					return ErrEmailTaken
				}
			}
			updates["email"] = v
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = tx.NowFunc()
		if err := tx.Model(&user{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}
		return tx.Where("id = ?", id).First(&out).Error
	})
	if err != nil {
		return ds.User{}, err
	}
	return toPublic(out), nil
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
