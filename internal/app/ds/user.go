package ds

import "time"

type UserCreate struct {
	Email string `json:"email" binding:"required,email" example:"jane@example.com"`
	Name  string `json:"name" binding:"required" example:"Jane Doe"`
}

// UserUpdate is a partial update, nil fields are left untouched.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
