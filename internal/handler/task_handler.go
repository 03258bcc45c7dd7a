package handler

import (
	"net/http"
	"strconv"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *service.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

type createTaskRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description" binding:"required"`
	ProjectID      int64      `json:"project_id" binding:"required"`
	AssigneeID     *int64     `json:"assignee_id"`
	Priority       string     `json:"priority"`
	Type           string     `json:"type"`
	EstimatedHours *int       `json:"estimated_hours" binding:"omitempty,min=0,max=1000"`
	DueDate        *time.Time `json:"due_date"`
	Tags           []string   `json:"tags"`
	Dependencies   []int64    `json:"dependencies"`
}

type updateTaskRequest struct {
	Title          *string           `json:"title"`
	Description    *string           `json:"description"`
	Status         *model.TaskStatus `json:"status"`
	Priority       *string           `json:"priority"`
	Type           *string           `json:"type"`
	AssigneeID     *int64            `json:"assignee_id"`
	EstimatedHours *int              `json:"estimated_hours" binding:"omitempty,min=0,max=1000"`
	ActualHours    *int              `json:"actual_hours" binding:"omitempty,min=0"`
	DueDate        *time.Time        `json:"due_date"`
	Tags           []string          `json:"tags"`
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

type subtaskRequest struct {
	Title string `json:"title" binding:"required"`
}

// ListTasks GET /api/tasks?project_id=&status=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}

	var projectID *int64
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return
		}
		projectID = &id
	}

	tasks, err := h.svc.ListTasks(c.Request.Context(), uid, projectID, c.Query("status"))
	if err != nil {
		writeError(c, h.logger, "ListTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CreateTask POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.svc.CreateTask(c.Request.Context(), uid, service.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		ProjectID:      req.ProjectID,
		AssigneeID:     req.AssigneeID,
		Priority:       req.Priority,
		Type:           req.Type,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		Dependencies:   req.Dependencies,
	})
	if err != nil {
		writeError(c, h.logger, "CreateTask", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": t})
}

// GetTask GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetTask(c.Request.Context(), uid, id)
	if err != nil {
		writeError(c, h.logger, "GetTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// UpdateTask PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.svc.UpdateTask(c.Request.Context(), uid, id, service.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Type:           req.Type,
		AssigneeID:     req.AssigneeID,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
	})
	if err != nil {
		writeError(c, h.logger, "UpdateTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// DeleteTask DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTask(c.Request.Context(), uid, id); err != nil {
		writeError(c, h.logger, "DeleteTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "task_id": id})
}

// AddComment POST /api/tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), uid, id, req.Text)
	if err != nil {
		writeError(c, h.logger, "AddComment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// AddSubtask POST /api/tasks/:id/subtasks
func (h *TaskHandler) AddSubtask(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req subtaskRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.svc.AddSubtask(c.Request.Context(), uid, id, req.Title)
	if err != nil {
		writeError(c, h.logger, "AddSubtask", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subtask": st})
}

// ToggleSubtask PUT /api/tasks/:id/subtasks/:subtaskId
func (h *TaskHandler) ToggleSubtask(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	subtaskID, ok := pathID(c, "subtaskId")
	if !ok {
		return
	}

	st, err := h.svc.ToggleSubtask(c.Request.Context(), uid, id, subtaskID)
	if err != nil {
		writeError(c, h.logger, "ToggleSubtask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtask": st})
}
