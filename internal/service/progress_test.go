package service

import (
	"context"
	"errors"
	"testing"

	"taskmaster/internal/model"
)

func TestComputeProgress(t *testing.T) {
	c, o := model.TaskCompleted, model.TaskTodo
	tests := []struct {
		name     string
		statuses []model.TaskStatus
		want     int
	}{
		{"no tasks", nil, 0},
		{"none completed", []model.TaskStatus{o, o}, 0},
		{"all completed", []model.TaskStatus{c, c, c}, 100},
		{"two of four", []model.TaskStatus{model.TaskTodo, model.TaskInProgress, c, c}, 50},
		{"one of three rounds down", []model.TaskStatus{c, o, o}, 33},
		{"two of three rounds up", []model.TaskStatus{c, c, o}, 67},
		{"one of eight rounds half up", []model.TaskStatus{c, o, o, o, o, o, o, o}, 13},
		{"blocked counts as not completed", []model.TaskStatus{c, model.TaskBlocked}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeProgress(tt.statuses); got != tt.want {
				t.Fatalf("ComputeProgress = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProgressFollowsTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.task(t, f.owner.ID, "a")
	b := f.task(t, f.owner.ID, "b")
	c := f.task(t, f.member.ID, "c")
	d := f.task(t, f.member.ID, "d")
	if got := f.progress(t); got != 0 {
		t.Fatalf("fresh tasks: progress %d, want 0", got)
	}

	f.advance(t, b.ID, model.TaskInProgress)
	f.advance(t, c.ID, model.TaskInProgress, model.TaskTesting, model.TaskCompleted)
	f.advance(t, d.ID, model.TaskInProgress, model.TaskReview, model.TaskTesting, model.TaskCompleted)
	if got := f.progress(t); got != 50 {
		t.Fatalf("[todo, in-progress, completed, completed]: progress %d, want 50", got)
	}

	if err := f.svc.DeleteTask(ctx, f.owner.ID, a.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if got := f.progress(t); got != 67 {
		t.Fatalf("after deleting the todo task: progress %d, want 67", got)
	}

	f.advance(t, c.ID, model.TaskTodo)
	if got := f.progress(t); got != 33 {
		t.Fatalf("after reopening: progress %d, want 33", got)
	}
}

func TestNonStatusEditLeavesProgressAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, f.owner.ID, "a")

	// 人为写入一个不一致的值，非状态修改不应触发重算
	if err := f.store.Projects().UpdateProgress(ctx, f.project.ID, 42); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	title := "renamed"
	if _, err := f.svc.UpdateTask(ctx, f.owner.ID, task.ID, TaskPatch{Title: &title}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got := f.progress(t); got != 42 {
		t.Fatalf("progress changed on a title edit: %d", got)
	}
}

type failingProgressStore struct {
	ProjectStore
}

func (failingProgressStore) UpdateProgress(context.Context, int64, int) error {
	return errors.New("db unavailable")
}

func TestRecalculationFailureKeepsTaskWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, f.owner.ID, "a")

	f.svc.projects = failingProgressStore{ProjectStore: f.store.Projects()}
	st := model.TaskInProgress
	updated, err := f.svc.UpdateTask(ctx, f.owner.ID, task.ID, TaskPatch{Status: &st})
	if err != nil {
		t.Fatalf("UpdateTask should succeed despite recalculation failure: %v", err)
	}
	if updated.Status != model.TaskInProgress {
		t.Fatalf("status = %s", updated.Status)
	}
	stored, _ := f.store.Tasks().FindByID(ctx, task.ID)
	if stored.Status != model.TaskInProgress {
		t.Fatalf("task write was rolled back: %s", stored.Status)
	}
	if _, err := f.svc.RecalculateProgress(ctx, f.project.ID); err == nil {
		t.Fatal("expected RecalculateProgress to surface the store error")
	}
}
