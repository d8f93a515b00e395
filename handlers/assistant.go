package handlers

import (
	"errors"
	"net/http"

	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	assistant *services.Assistant
}

func NewAssistantHandler(assistant *services.Assistant) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type AssistantRequest struct {
	Prompt string `json:"prompt"`
	Task   string `json:"task" binding:"omitempty,oneof=short_code detailed_code fix_code explain_code"`
	Model  string `json:"model"`
	APIKey string `json:"api_key"`
}

func (h *AssistantHandler) Respond(c *gin.Context) {
	var req AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.assistant.Respond(c.Request.Context(), services.AssistRequest{
		Prompt: req.Prompt,
		Task:   req.Task,
		Model:  req.Model,
		APIKey: req.APIKey,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, services.ErrEmptyPrompt), errors.Is(err, services.ErrUnknownModel):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrMissingAPIKey), errors.Is(err, services.ErrInvalidAPIKey):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// Models lists the selectable models, default first.
func (h *AssistantHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": services.AssistantModels})
}
