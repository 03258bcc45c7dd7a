// Package rbac decides who may read or change a project and its tasks.
// Every check is a pure function of already-loaded entities.
package rbac

import (
	"fmt"

	"taskmaster/internal/model"
)

// Actions gated by the predicates below.
const (
	ActionReadProject   = "project:read"
	ActionUpdateProject = "project:update"
	ActionManageTeam    = "project:team"
	ActionDeleteProject = "project:delete"
	ActionCreateTask    = "task:create"
	ActionReadTask      = "task:read"
	ActionUpdateTask    = "task:update"
	ActionDeleteTask    = "task:delete"
)

// HasProjectAccess is true for the owner and for every team member.
func HasProjectAccess(userID int64, p *model.Project) bool {
	if p == nil {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	_, ok := p.Member(userID)
	return ok
}

// IsProjectAdmin is true for the owner and for team leads.
func IsProjectAdmin(userID int64, p *model.Project) bool {
	if p == nil {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	m, ok := p.Member(userID)
	return ok && m.Role == model.TeamRoleLead
}

// CanDeleteProject is owner-only; leads cannot delete.
func CanDeleteProject(userID int64, p *model.Project) bool {
	return p != nil && p.OwnerID == userID
}

// CanDeleteTask allows the project owner and the task's reporter.
func CanDeleteTask(userID int64, p *model.Project, t *model.Task) bool {
	if p == nil || t == nil {
		return false
	}
	return p.OwnerID == userID || t.ReporterID == userID
}

// Allowed maps an action to its predicate. t is only consulted for ActionDeleteTask.
func Allowed(action string, userID int64, p *model.Project, t *model.Task) bool {
	switch action {
	case ActionReadProject, ActionCreateTask, ActionReadTask, ActionUpdateTask:
		return HasProjectAccess(userID, p)
	case ActionUpdateProject, ActionManageTeam:
		return IsProjectAdmin(userID, p)
	case ActionDeleteProject:
		return CanDeleteProject(userID, p)
	case ActionDeleteTask:
		return CanDeleteTask(userID, p, t)
	}
	return false
}

// Check returns a *PermissionDeniedError when Allowed is false.
func Check(action string, userID int64, p *model.Project, t *model.Task) error {
	if Allowed(action, userID, p, t) {
		return nil
	}
	var projectID int64
	if p != nil {
		projectID = p.ID
	}
	return &PermissionDeniedError{
		UserID:    userID,
		ProjectID: projectID,
		Action:    action,
	}
}

// PermissionDeniedError names the user and action that were refused.
type PermissionDeniedError struct {
	UserID    int64
	ProjectID int64
	Action    string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("access denied: user %d may not %s on project %d", e.UserID, e.Action, e.ProjectID)
}
