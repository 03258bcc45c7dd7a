package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"taskmaster/internal/events"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/pkg/rbac"

	"go.uber.org/zap"
)

const (
	maxProjectName        = 100
	maxProjectDescription = 1000
)

type CreateProjectInput struct {
	Name        string
	Description string
	Priority    string
	Tags        []string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *model.Budget
}

// ProjectPatch carries the fields to change; nil leaves a field as is.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *string
	Priority    *string
	Tags        []string
	EndDate     *time.Time
	Budget      *model.Budget
}

type MilestoneInput struct {
	Name        string
	Description string
	DueDate     *time.Time
}

func validateProjectText(name, description string) (string, string, error) {
	name, err := required("name", name)
	if err != nil {
		return "", "", err
	}
	if utf8.RuneCountInString(name) > maxProjectName {
		return "", "", invalid("name", fmt.Sprintf("cannot exceed %d characters", maxProjectName))
	}
	description, err = required("description", description)
	if err != nil {
		return "", "", err
	}
	if utf8.RuneCountInString(description) > maxProjectDescription {
		return "", "", invalid("description", fmt.Sprintf("cannot exceed %d characters", maxProjectDescription))
	}
	return name, description, nil
}

func validateBudget(b model.Budget) error {
	if b.Allocated < 0 || b.Spent < 0 {
		return invalid("budget", "must not be negative")
	}
	return nil
}

// CreateProject makes the requester owner and team lead of a new project.
func (s *Service) CreateProject(ctx context.Context, requester int64, in CreateProjectInput) (*model.Project, error) {
	name, description, err := validateProjectText(in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidProjectPriority(priority) {
		return nil, invalid("priority", "must be one of low, medium, high, critical")
	}
	var budget model.Budget
	if in.Budget != nil {
		if err := validateBudget(*in.Budget); err != nil {
			return nil, err
		}
		budget = *in.Budget
	}

	now := s.now()
	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil && in.EndDate.Before(start) {
		return nil, invalid("end_date", "must not be before the start date")
	}

	if _, err := s.loadUser(ctx, requester); err != nil {
		return nil, err
	}

	p := &model.Project{
		Name:        name,
		Description: description,
		Status:      model.ProjectPlanning,
		Priority:    priority,
		StartDate:   start,
		EndDate:     in.EndDate,
		OwnerID:     requester,
		Team:        []model.TeamMember{{UserID: requester, Role: model.TeamRoleLead, JoinedAt: now}},
		Tags:        normalizeTags(in.Tags),
		Progress:    0,
		Budget:      budget,
		Milestones:  []model.Milestone{},
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.log(ctx).Info("Project created",
		zap.Int64("project_id", p.ID),
		zap.Int64("owner_id", requester),
	)
	s.emit(ctx, events.ProjectCreated, events.ProjectPayload{ProjectID: p.ID, ActorID: requester, Name: p.Name})
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, requester, projectID int64) (*model.Project, error) {
	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionReadProject, requester, p, nil); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProjects returns the projects the requester owns or belongs to.
func (s *Service) ListProjects(ctx context.Context, requester int64) ([]model.Project, error) {
	projects, err := s.projects.ListForUser(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject applies a patch. Progress is derived and cannot be patched.
func (s *Service) UpdateProject(ctx context.Context, requester, projectID int64, patch ProjectPatch) (*model.Project, error) {
	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionUpdateProject, requester, p, nil); err != nil {
		return nil, err
	}

	name, description := p.Name, p.Description
	if patch.Name != nil {
		name = *patch.Name
	}
	if patch.Description != nil {
		description = *patch.Description
	}
	if p.Name, p.Description, err = validateProjectText(name, description); err != nil {
		return nil, err
	}
	if patch.Status != nil {
		if !model.ValidProjectStatus(*patch.Status) {
			return nil, invalid("status", "must be one of planning, in-progress, testing, completed, on-hold")
		}
		p.Status = *patch.Status
	}
	if patch.Priority != nil {
		if !model.ValidProjectPriority(*patch.Priority) {
			return nil, invalid("priority", "must be one of low, medium, high, critical")
		}
		p.Priority = *patch.Priority
	}
	if patch.Tags != nil {
		p.Tags = normalizeTags(patch.Tags)
	}
	if patch.EndDate != nil {
		if patch.EndDate.Before(p.StartDate) {
			return nil, invalid("end_date", "must not be before the start date")
		}
		p.EndDate = patch.EndDate
	}
	if patch.Budget != nil {
		if err := validateBudget(*patch.Budget); err != nil {
			return nil, err
		}
		p.Budget = *patch.Budget
	}

	if err := s.projects.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "project", ID: projectID}
		}
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.emit(ctx, events.ProjectUpdated, events.ProjectPayload{ProjectID: p.ID, ActorID: requester, Name: p.Name})
	return p, nil
}

// AddTeamMember adds userID to the team. A user already on the team is a
// ConflictError; membership is keyed by user id.
func (s *Service) AddTeamMember(ctx context.Context, requester, projectID, userID int64, role string) (*model.Project, error) {
	if role == "" {
		role = model.TeamRoleDeveloper
	}
	if !model.ValidTeamRole(role) {
		return nil, invalid("role", "must be one of lead, developer, tester, designer")
	}

	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionManageTeam, requester, p, nil); err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, exists := p.Member(userID); exists {
		return nil, &ConflictError{Message: "user is already a team member"}
	}

	m := model.TeamMember{UserID: userID, Role: role, JoinedAt: s.now()}
	if err := s.projects.AddMember(ctx, projectID, m); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, &ConflictError{Message: "user is already a team member"}
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Resource: "project", ID: projectID}
		}
		return nil, fmt.Errorf("add team member: %w", err)
	}

	s.log(ctx).Info("Team member added",
		zap.Int64("project_id", projectID),
		zap.Int64("user_id", userID),
		zap.String("role", role),
	)
	p.Team = append(p.Team, m)
	s.emit(ctx, events.ProjectUpdated, events.ProjectPayload{ProjectID: p.ID, ActorID: requester})
	return p, nil
}

// RemoveTeamMember drops a member. The owner always stays on the team.
func (s *Service) RemoveTeamMember(ctx context.Context, requester, projectID, userID int64) (*model.Project, error) {
	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionManageTeam, requester, p, nil); err != nil {
		return nil, err
	}
	if userID == p.OwnerID {
		return nil, invalid("user_id", "the project owner cannot be removed from the team")
	}
	if _, ok := p.Member(userID); !ok {
		return nil, &NotFoundError{Resource: "team member", ID: userID}
	}

	if err := s.projects.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "team member", ID: userID}
		}
		return nil, fmt.Errorf("remove team member: %w", err)
	}

	team := make([]model.TeamMember, 0, len(p.Team))
	for _, m := range p.Team {
		if m.UserID != userID {
			team = append(team, m)
		}
	}
	p.Team = team
	s.emit(ctx, events.ProjectUpdated, events.ProjectPayload{ProjectID: p.ID, ActorID: requester})
	return p, nil
}

func (s *Service) AddMilestone(ctx context.Context, requester, projectID int64, in MilestoneInput) (*model.Milestone, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}

	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionUpdateProject, requester, p, nil); err != nil {
		return nil, err
	}

	m := &model.Milestone{
		ProjectID:   projectID,
		Name:        name,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      model.MilestonePending,
	}
	if err := s.milestones.Insert(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "project", ID: projectID}
		}
		return nil, fmt.Errorf("add milestone: %w", err)
	}
	return m, nil
}

// DeleteProject is owner-only and removes the project's tasks and milestones with it.
func (s *Service) DeleteProject(ctx context.Context, requester, projectID int64) error {
	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := authorize(rbac.ActionDeleteProject, requester, p, nil); err != nil {
		s.log(ctx).Warn("Project deletion denied",
			zap.Int64("project_id", projectID),
			zap.Int64("user_id", requester),
		)
		return err
	}

	removed, err := s.projects.Delete(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "project", ID: projectID}
		}
		return fmt.Errorf("delete project: %w", err)
	}

	s.log(ctx).Info("Project deleted",
		zap.Int64("project_id", projectID),
		zap.Int64("tasks_deleted", removed),
	)
	s.emit(ctx, events.ProjectDeleted, events.ProjectPayload{
		ProjectID:    projectID,
		ActorID:      requester,
		Name:         p.Name,
		TasksDeleted: removed,
	})
	return nil
}
