package handler

import (
	"net/http"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewProjectHandler(svc *service.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

type createProjectRequest struct {
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description" binding:"required"`
	Priority    string        `json:"priority"`
	Tags        []string      `json:"tags"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	Budget      *model.Budget `json:"budget"`
}

// progress is derived; it is not patchable.
type updateProjectRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Status      *string       `json:"status"`
	Priority    *string       `json:"priority"`
	Tags        []string      `json:"tags"`
	EndDate     *time.Time    `json:"end_date"`
	Budget      *model.Budget `json:"budget"`
}

type addMemberRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type milestoneRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// ListProjects GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	projects, err := h.svc.ListProjects(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.logger, "ListProjects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// CreateProject POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreateProject(c.Request.Context(), uid, service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Tags:        req.Tags,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
	})
	if err != nil {
		writeError(c, h.logger, "CreateProject", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

// GetProject GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetProject(c.Request.Context(), uid, id)
	if err != nil {
		writeError(c, h.logger, "GetProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// UpdateProject PUT /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.UpdateProject(c.Request.Context(), uid, id, service.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
	})
	if err != nil {
		writeError(c, h.logger, "UpdateProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// DeleteProject DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProject(c.Request.Context(), uid, id); err != nil {
		writeError(c, h.logger, "DeleteProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "project_id": id})
}

// AddTeamMember POST /api/projects/:id/team
func (h *ProjectHandler) AddTeamMember(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.AddTeamMember(c.Request.Context(), uid, id, req.UserID, req.Role)
	if err != nil {
		writeError(c, h.logger, "AddTeamMember", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// RemoveTeamMember DELETE /api/projects/:id/team/:userId
func (h *ProjectHandler) RemoveTeamMember(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	p, err := h.svc.RemoveTeamMember(c.Request.Context(), uid, id, memberID)
	if err != nil {
		writeError(c, h.logger, "RemoveTeamMember", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// AddMilestone POST /api/projects/:id/milestones
func (h *ProjectHandler) AddMilestone(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req milestoneRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.AddMilestone(c.Request.Context(), uid, id, service.MilestoneInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(c, h.logger, "AddMilestone", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"milestone": m})
}
