package handlers

import (
	"errors"
	"net/http"
	"strings"

	"accident-dashboard-api/models"
	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
)

type TasksHandler struct {
	client *services.TaskClient
}

func NewTasksHandler(client *services.TaskClient) *TasksHandler {
	return &TasksHandler{client: client}
}

func upstreamFailure(c *gin.Context, err error) {
	var upstream *services.UpstreamError
	if errors.As(err, &upstream) {
		c.JSON(http.StatusBadGateway, gin.H{"error": upstream.Error(), "upstream_status": upstream.Status})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

// List returns the tasks, optionally narrowed by ?status=all|pending|completed.
func (h *TasksHandler) List(c *gin.Context) {
	tasks, err := h.client.List(c.Request.Context())
	if err != nil {
		upstreamFailure(c, err)
		return
	}
	filtered, err := services.FilterTasks(tasks, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": filtered, "total": len(tasks)})
}

func (h *TasksHandler) Priorities(c *gin.Context) {
	tasks, err := h.client.List(c.Request.Context())
	if err != nil {
		upstreamFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": services.CountPriorities(tasks)})
}

type CreateTaskRequest struct {
	TaskTitle   string `json:"taskTitle" binding:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority" binding:"required,oneof=1 2 3"`
	IsComplete  bool   `json:"isComplete"`
	DueDate     string `json:"dueDate" binding:"required,datetime=2006-01-02"`
}

func (h *TasksHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	title := strings.TrimSpace(req.TaskTitle)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskTitle is required"})
		return
	}

	isComplete := "false"
	if req.IsComplete {
		isComplete = "true"
	}
	created, err := h.client.Create(c.Request.Context(), models.NewTask{
		TaskTitle:   title,
		Description: req.Description,
		Priority:    req.Priority,
		IsComplete:  isComplete,
		DueDate:     req.DueDate,
	})
	if err != nil {
		upstreamFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
