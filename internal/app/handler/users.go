package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"userapi/internal/app/ds"
	"userapi/internal/app/repository"
)

// ApiCreateUser godoc
// @Summary      Create user
// @Description  Register a new user; the e-mail must be unique
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body ds.UserCreate true "User data"
// @Success      201 {object} ds.User
// @Failure      400 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Router       /api/v1/users/ [post]
func (h *Handler) ApiCreateUser(c *gin.Context) {
	var in ds.UserCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json", "details": err.Error()})
		return
	}
	u, err := h.Repository.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// ApiListUsers godoc
// @Summary      List users
// @Description  Page through users ordered by id
// @Tags         Users
// @Produce      json
// @Param        skip  query int false "Rows to skip" default(0)
// @Param        limit query int false "Page size (max 1000)" default(100)
// @Success      200 {array}  ds.User
// @Failure      400 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Router       /api/v1/users/ [get]
func (h *Handler) ApiListUsers(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	limit, err := queryInt(c, "limit", repository.DefaultListLimit)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	users, err := h.Repository.ListUsers(c.Request.Context(), skip, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ApiGetUser godoc
// @Summary      Get user by ID
// @Tags         Users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} ds.User
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /api/v1/users/{id} [get]
func (h *Handler) ApiGetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if h.Cache != nil {
		u, found, err := h.Cache.GetUser(ctx, id)
		if err != nil {
			logrus.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		} else if found {
			c.JSON(http.StatusOK, u)
			return
		}
	}
	u, err := h.Repository.GetUser(ctx, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if h.Cache != nil {
		if err := h.Cache.SaveUser(ctx, u); err != nil {
			logrus.WithError(err).WithField("user_id", id).Warn("user cache write failed")
		}
	}
	c.JSON(http.StatusOK, u)
}

// ApiUpdateUser godoc
// @Summary      Update user
// @Description  Partial update; omitted fields keep their value
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id      path int           true "User ID"
// @Param        request body ds.UserUpdate true "Fields to change"
// @Success      200 {object} ds.User
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /api/v1/users/{id} [put]
func (h *Handler) ApiUpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var in ds.UserUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json", "details": err.Error()})
		return
	}
	u, err := h.Repository.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.invalidate(c, id)
	c.JSON(http.StatusOK, u)
}

// ApiDeleteUser godoc
// @Summary      Delete user
// @Tags         Users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} map[string]string
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /api/v1/users/{id} [delete]
func (h *Handler) ApiDeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	if err := h.Repository.DeleteUser(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	h.invalidate(c, id)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) invalidate(c *gin.Context, id int64) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.DeleteUser(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("user_id", id).Warn("user cache invalidation failed")
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
	case errors.Is(err, repository.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Errorf("%s %s", c.Request.Method, c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
