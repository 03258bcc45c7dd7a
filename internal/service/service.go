package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmaster/internal/events"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/pkg/logger"

	"go.uber.org/zap"
)

// AuthConfig configures token issuing.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
}

// Service implements every use case behind the HTTP API. Each call is an
// independent unit of work; the service keeps no per-request state.
type Service struct {
	users      UserStore
	projects   ProjectStore
	milestones MilestoneStore
	tasks      TaskStore
	stats      StatsStore
	events     EventPublisher
	auth       AuthConfig
	logger     *zap.Logger
	now        func() time.Time
}

func New(stores Stores, publisher EventPublisher, auth AuthConfig, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		users:      stores.Users,
		projects:   stores.Projects,
		milestones: stores.Milestones,
		tasks:      stores.Tasks,
		stats:      stores.Stats,
		events:     publisher,
		auth:       auth,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.WithTrace(ctx, s.logger)
}

// emit publishes best effort; the mutation has already been committed.
func (s *Service) emit(ctx context.Context, routingKey string, payload any) {
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		s.log(ctx).Debug("Event not delivered",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func (s *Service) loadProject(ctx context.Context, id int64) (*model.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "project", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load project %d: %w", id, err)
	}
	return p, nil
}

func (s *Service) loadTask(ctx context.Context, id int64) (*model.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "task", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load task %d: %w", id, err)
	}
	return t, nil
}

func (s *Service) loadUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return u, nil
}

// loadTaskWithProject resolves a task and the project that gates it.
func (s *Service) loadTaskWithProject(ctx context.Context, taskID int64) (*model.Task, *model.Project, error) {
	t, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.loadProject(ctx, t.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

// normalizeTags trims tags and drops empty ones and repeats.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, "is required")
	}
	return value, nil
}
