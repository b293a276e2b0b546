package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, errors.New("nil gorm DB passed to repository")
	}
	return &Repository{db: db}, nil
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidInput = errors.New("invalid input")

	ErrEmptyName  = fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	ErrEmptyEmail = fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
)

// GORM models mapping DB tables
type user struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string     `gorm:"column:email;size:255;not null;uniqueIndex"`
	Name      string     `gorm:"column:name;size:255;not null"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (user) TableName() string { return "users" }

// Models lists every table the service owns, in creation order.
func Models() []interface{} {
	return []interface{}{&user{}}
}
