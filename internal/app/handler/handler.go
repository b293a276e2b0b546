package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"userapi/internal/app/ds"
	"userapi/internal/app/repository"
)

// UserCache is the optional read-through cache in front of the repository.
type UserCache interface {
	GetUser(ctx context.Context, id int64) (ds.User, bool, error)
	SaveUser(ctx context.Context, u ds.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type Handler struct {
	Repository *repository.Repository
	Cache      UserCache
}

// NewHandler builds the users router. cache may be nil.
func NewHandler(r *repository.Repository, cache UserCache) *Handler {
	return &Handler{
		Repository: r,
		Cache:      cache,
	}
}

// Register mounts the user routes on rg. Collection routes answer with and without the trailing slash.
func (h *Handler) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("", h.ApiCreateUser)
		users.POST("/", h.ApiCreateUser)
		users.GET("", h.ApiListUsers)
		users.GET("/", h.ApiListUsers)
		users.GET("/:id", h.ApiGetUser)
		users.PUT("/:id", h.ApiUpdateUser)
		users.DELETE("/:id", h.ApiDeleteUser)
	}
}
