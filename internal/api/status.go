package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type messageResponse struct {
	Message string `json:"message" example:"FastAPI Backend is running!"`
}

type healthResponse struct {
	Status  string `json:"status" example:"OK"`
	Message string `json:"message" example:"API is healthy"`
}

// RegisterStatusRoutes adds GET / and GET /health.
func (a *Application) RegisterStatusRoutes() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkMutable(); err != nil {
		return err
	}
	a.engine.GET("/", root)
	a.engine.GET("/health", health)
	return nil
}

// root godoc
// @Summary      Service banner
// @Tags         Status
// @Produce      json
// @Success      200 {object} messageResponse
// @Router       / [get]
func root(c *gin.Context) {
	c.JSON(http.StatusOK, messageResponse{Message: "FastAPI Backend is running!"})
}

// health godoc
// @Summary      Health check
// @Description  Liveness/readiness probe, no dependency checks
// @Tags         Status
// @Produce      json
// @Success      200 {object} healthResponse
// @Router       /health [get]
func health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "OK", Message: "API is healthy"})
}
