//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"taskmaster/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository/
// The database is truncated before every test.

type pgFixture struct {
	pool     *pgxpool.Pool
	users    *UserRepository
	projects *ProjectRepository
	tasks    *TaskRepository
	stats    *StatsRepository

	owner   *model.User
	project *model.Project
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	logger := zap.NewNop()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE users, projects, project_members, milestones, tasks,
        task_comments, task_subtasks, task_dependencies RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	f := &pgFixture{
		pool:     pool,
		users:    NewUserRepository(pool, logger),
		projects: NewProjectRepository(pool, logger),
		tasks:    NewTaskRepository(pool, logger),
		stats:    NewStatsRepository(pool, logger),
	}

	f.owner = &model.User{Username: "owner", Email: "owner@example.com", Role: model.RoleManager}
	if err := f.users.Create(ctx, f.owner); err != nil {
		t.Fatalf("create user: %v", err)
	}
	f.project = &model.Project{
		Name:      "Apollo",
		OwnerID:   f.owner.ID,
		Status:    model.ProjectPlanning,
		Priority:  model.PriorityMedium,
		StartDate: time.Now(),
		Team:      []model.TeamMember{{UserID: f.owner.ID, Role: model.TeamRoleLead, JoinedAt: time.Now()}},
	}
	if err := f.projects.Create(ctx, f.project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return f
}

func (f *pgFixture) task(t *testing.T, title string) *model.Task {
	t.Helper()
	task := &model.Task{
		Title:      title,
		ProjectID:  f.project.ID,
		ReporterID: f.owner.ID,
		AssigneeID: &f.owner.ID,
		Status:     model.TaskTodo,
		Priority:   model.TaskPriorityMedium,
		Type:       model.TaskTypeFeature,
	}
	if err := f.tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

func TestPGTaskUpdateGuardsStatus(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	task := f.task(t, "a")

	stale, err := f.tasks.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}

	task.Status = model.TaskInProgress
	if err := f.tasks.Update(ctx, task, model.TaskTodo); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale.Status = model.TaskBlocked
	if err := f.tasks.Update(ctx, stale, model.TaskTodo); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, _ := f.tasks.FindByID(ctx, task.ID)
	if got.Status != model.TaskInProgress {
		t.Fatalf("stale write overwrote status: %s", got.Status)
	}

	missing := &model.Task{ID: task.ID + 1000, Status: model.TaskTodo, Priority: model.TaskPriorityLow, Type: model.TaskTypeBug}
	if err := f.tasks.Update(ctx, missing, model.TaskTodo); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGCompletedDateWrittenWithStatus(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	task := f.task(t, "a")

	// the CHECK constraint refuses a completed task without a completion date
	task.Status = model.TaskCompleted
	if err := f.tasks.Update(ctx, task, model.TaskTodo); err == nil {
		t.Fatal("expected the completed_date check to reject the write")
	}

	done := time.Now().UTC().Truncate(time.Microsecond)
	task.CompletedDate = &done
	if err := f.tasks.Update(ctx, task, model.TaskTodo); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := f.tasks.FindByID(ctx, task.ID)
	if got.Status != model.TaskCompleted || got.CompletedDate == nil || !got.CompletedDate.Equal(done) {
		t.Fatalf("unexpected stored task: status=%s completed=%v", got.Status, got.CompletedDate)
	}
}

func TestPGDeleteProjectCascades(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.task(t, fmt.Sprintf("t%d", i))
	}

	n, err := f.projects.Delete(ctx, f.project.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted tasks, got %d", n)
	}
	if _, err := f.projects.FindByID(ctx, f.project.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	left, err := f.tasks.StatusesByProject(ctx, f.project.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("expected no tasks left, got %v, %v", left, err)
	}
	if _, err := f.projects.Delete(ctx, f.project.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a second delete, got %v", err)
	}
}

func TestPGDuplicateMember(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	err := f.projects.AddMember(ctx, f.project.ID, model.TeamMember{UserID: f.owner.ID, Role: model.TeamRoleDeveloper, JoinedAt: time.Now()})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPGPerformanceAggregates(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	done := f.task(t, "done")
	f.task(t, "open")

	if _, err := f.pool.Exec(ctx,
		`UPDATE tasks SET status = 'completed', completed_date = created_at + INTERVAL '36 hours' WHERE id = $1`,
		done.ID,
	); err != nil {
		t.Fatalf("complete task: %v", err)
	}

	filter := StatsFilter{ProjectIDs: []int64{f.project.ID}, Since: time.Now().Add(-time.Hour), Bucket: BucketMonth}
	trends, err := f.stats.Trends(ctx, filter)
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	if len(trends) != 1 || trends[0].Created != 2 || trends[0].Completed != 1 {
		t.Fatalf("unexpected trends: %+v", trends)
	}
	if trends[0].Period != PeriodKey(time.Now(), BucketMonth) {
		t.Fatalf("unexpected period %q", trends[0].Period)
	}

	prod, err := f.stats.Productivity(ctx, filter)
	if err != nil {
		t.Fatalf("Productivity: %v", err)
	}
	if len(prod) != 1 || prod[0].TotalTasks != 2 || prod[0].CompletedTasks != 1 || prod[0].CompletionRate != 50 {
		t.Fatalf("unexpected productivity: %+v", prod)
	}
	if prod[0].AvgCompletionDays == nil || *prod[0].AvgCompletionDays != 1.5 {
		t.Fatalf("expected 1.5 days, got %v", prod[0].AvgCompletionDays)
	}
}
