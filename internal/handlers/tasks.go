package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/services"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// TaskHandler manages the tasks of a group.
type TaskHandler struct {
	svc *services.TaskService
}

func NewTaskHandler(svc *services.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,notblank,max=255"`
	Description string     `json:"description" validate:"omitempty,max=4096"`
	DueAt       *time.Time `json:"due_at"`
}

type updateTaskRequest struct {
	Status string `json:"status" validate:"required,oneof=TODO IN_PROGRESS DONE"`
}

// POST /api/groups/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.svc.Create(requestContext(c), userID, c.Param("id"), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// GET /api/groups/:id/tasks?status=TODO
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status := models.TaskStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	tasks, err := h.svc.List(requestContext(c), userID, c.Param("id"), status)
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, tasks, 0)
}

// PATCH /api/groups/:id/tasks/:taskID
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.svc.UpdateStatus(requestContext(c), userID, c.Param("id"), c.Param("taskID"), models.TaskStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DELETE /api/groups/:id/tasks/:taskID
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(requestContext(c), userID, c.Param("id"), c.Param("taskID")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
