package workflow

import (
	"testing"
	"time"

	"taskmaster/internal/model"
)

var allStatuses = []model.TaskStatus{
	model.TaskTodo,
	model.TaskInProgress,
	model.TaskReview,
	model.TaskTesting,
	model.TaskCompleted,
	model.TaskBlocked,
}

func TestTransitionTable(t *testing.T) {
	allowed := map[model.TaskStatus]map[model.TaskStatus]bool{
		model.TaskTodo:       {model.TaskInProgress: true, model.TaskBlocked: true},
		model.TaskInProgress: {model.TaskReview: true, model.TaskTesting: true, model.TaskBlocked: true, model.TaskTodo: true},
		model.TaskReview:     {model.TaskTesting: true, model.TaskInProgress: true, model.TaskTodo: true},
		model.TaskTesting:    {model.TaskCompleted: true, model.TaskInProgress: true, model.TaskTodo: true},
		model.TaskCompleted:  {model.TaskTodo: true, model.TaskInProgress: true},
		model.TaskBlocked:    {model.TaskTodo: true, model.TaskInProgress: true},
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}

			task := &model.Task{Status: from}
			if got := AttemptTransition(task, to, now); got != want {
				t.Errorf("AttemptTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
			if want && task.Status != to {
				t.Errorf("%s -> %s: status not applied, got %s", from, to, task.Status)
			}
			if !want && task.Status != from {
				t.Errorf("%s -> %s: rejected transition mutated status to %s", from, to, task.Status)
			}
		}
	}
}

func TestSameStatusIsRejected(t *testing.T) {
	for _, s := range allStatuses {
		task := &model.Task{Status: s}
		if AttemptTransition(task, s, time.Now()) {
			t.Errorf("%s -> %s must be rejected", s, s)
		}
	}
}

func TestUnknownStatusIsRejected(t *testing.T) {
	task := &model.Task{Status: model.TaskTodo}
	if AttemptTransition(task, model.TaskStatus("done"), time.Now()) {
		t.Fatal("unknown target must be rejected")
	}
	if task.Status != model.TaskTodo {
		t.Fatalf("status changed to %s", task.Status)
	}
}

func TestTodoToCompletedRejected(t *testing.T) {
	task := &model.Task{Status: model.TaskTodo}
	if AttemptTransition(task, model.TaskCompleted, time.Now()) {
		t.Fatal("todo -> completed must be rejected")
	}
	if task.Status != model.TaskTodo || task.CompletedDate != nil {
		t.Fatalf("rejected transition mutated task: %+v", task)
	}
}

func TestTestingToCompletedStampsDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := &model.Task{Status: model.TaskTesting}

	if !AttemptTransition(task, model.TaskCompleted, now) {
		t.Fatal("testing -> completed must be accepted")
	}
	if task.Status != model.TaskCompleted {
		t.Fatalf("expected completed, got %s", task.Status)
	}
	if task.CompletedDate == nil || !task.CompletedDate.Equal(now) {
		t.Fatalf("expected completed date %v, got %v", now, task.CompletedDate)
	}
}

func TestCompletedDateNotOverwritten(t *testing.T) {
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := &model.Task{Status: model.TaskTesting, CompletedDate: &first}

	if !AttemptTransition(task, model.TaskCompleted, first.Add(time.Hour)) {
		t.Fatal("testing -> completed must be accepted")
	}
	if !task.CompletedDate.Equal(first) {
		t.Fatalf("existing completed date overwritten: %v", task.CompletedDate)
	}

	if AttemptTransition(task, model.TaskCompleted, first.Add(2*time.Hour)) {
		t.Fatal("completed -> completed must be rejected")
	}
	if !task.CompletedDate.Equal(first) {
		t.Fatalf("rejected transition touched completed date: %v", task.CompletedDate)
	}
}

func TestLeavingCompletedClearsDate(t *testing.T) {
	for _, to := range []model.TaskStatus{model.TaskTodo, model.TaskInProgress} {
		done := time.Now()
		task := &model.Task{Status: model.TaskCompleted, CompletedDate: &done}
		if !AttemptTransition(task, to, time.Now()) {
			t.Fatalf("completed -> %s must be accepted", to)
		}
		if task.CompletedDate != nil {
			t.Fatalf("completed -> %s must clear completed date", to)
		}
	}
}

func TestAllowedTargetsReturnsCopy(t *testing.T) {
	targets := AllowedTargets(model.TaskTodo)
	targets[0] = model.TaskCompleted
	if CanTransition(model.TaskTodo, model.TaskCompleted) {
		t.Fatal("mutating the returned slice must not change the table")
	}
}
