package handlers

import (
	"errors"
	"net/http"

	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	auth    *services.AuthService
	dataset *services.DatasetService
}

func NewAdminHandler(auth *services.AuthService, dataset *services.DatasetService) *AdminHandler {
	return &AdminHandler{auth: auth, dataset: dataset}
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.AdminLogin(req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": token})
	case errors.Is(err, services.ErrAdminDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
	}
}

// Reload re-reads the dataset source. The previous table keeps serving when
// the reload fails.
func (h *AdminHandler) Reload(c *gin.Context) {
	if err := h.dataset.Reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": h.dataset.Status()})
		return
	}
	c.JSON(http.StatusOK, h.dataset.Status())
}
