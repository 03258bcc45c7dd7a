package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskmaster/internal/events"
	"taskmaster/internal/model"
	"taskmaster/internal/repository/memstore"

	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

type recordedEvent struct {
	key     string
	payload any
}

type fakePublisher struct {
	events []recordedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	f.events = append(f.events, recordedEvent{key: key, payload: payload})
	return f.err
}

func (f *fakePublisher) keys() []string {
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.key
	}
	return out
}

type fixture struct {
	svc   *Service
	store *memstore.Store
	pub   *fakePublisher

	owner    *model.User
	lead     *model.User
	member   *model.User
	outsider *model.User
	project  *model.Project
}

func newService(store *memstore.Store, pub EventPublisher) *Service {
	return New(Stores{
		Users:      store.Users(),
		Projects:   store.Projects(),
		Milestones: store.Milestones(),
		Tasks:      store.Tasks(),
		Stats:      store.Stats(),
	}, pub, AuthConfig{Secret: "test-secret", TTL: time.Hour}, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })
}

func mustUser(t *testing.T, store *memstore.Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", Role: model.RoleDeveloper}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// newFixture builds a project owned by owner with lead (role lead) and member
// (role developer) on the team; outsider has no relation to it.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	pub := &fakePublisher{}
	f := &fixture{
		svc:      newService(store, pub),
		store:    store,
		pub:      pub,
		owner:    mustUser(t, store, "owner"),
		lead:     mustUser(t, store, "lead"),
		member:   mustUser(t, store, "member"),
		outsider: mustUser(t, store, "outsider"),
	}

	p, err := f.svc.CreateProject(ctx, f.owner.ID, CreateProjectInput{Name: "Apollo", Description: "Moon shot"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := f.svc.AddTeamMember(ctx, f.owner.ID, p.ID, f.lead.ID, model.TeamRoleLead); err != nil {
		t.Fatalf("add lead: %v", err)
	}
	if _, err := f.svc.AddTeamMember(ctx, f.owner.ID, p.ID, f.member.ID, ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	f.project = p
	f.pub.events = nil
	return f
}

func (f *fixture) task(t *testing.T, requester int64, title string) *model.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), requester, CreateTaskInput{
		Title:       title,
		Description: "details",
		ProjectID:   f.project.ID,
	})
	if err != nil {
		t.Fatalf("CreateTask %s: %v", title, err)
	}
	return task
}

// advance walks a task along allowed transitions.
func (f *fixture) advance(t *testing.T, taskID int64, path ...model.TaskStatus) *model.Task {
	t.Helper()
	var task *model.Task
	for _, st := range path {
		var err error
		task, err = f.svc.UpdateTask(context.Background(), f.owner.ID, taskID, TaskPatch{Status: &st})
		if err != nil {
			t.Fatalf("transition to %s: %v", st, err)
		}
	}
	return task
}

func (f *fixture) progress(t *testing.T) int {
	t.Helper()
	p, err := f.store.Projects().FindByID(context.Background(), f.project.ID)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	return p.Progress
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError, got %v", err)
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

var _ EventPublisher = events.Noop{}
