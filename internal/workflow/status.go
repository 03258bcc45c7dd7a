// Package workflow holds the task status machine.
//
// A task starts in todo. completed is not absorbing: a finished task may be
// reopened to todo or in-progress. There are no self-loops, so asking for the
// current status is rejected like any other edge missing from the table.
package workflow

import (
	"time"

	"taskmaster/internal/model"
)

var transitions = map[model.TaskStatus][]model.TaskStatus{
	model.TaskTodo:       {model.TaskInProgress, model.TaskBlocked},
	model.TaskInProgress: {model.TaskReview, model.TaskTesting, model.TaskBlocked, model.TaskTodo},
	model.TaskReview:     {model.TaskTesting, model.TaskInProgress, model.TaskTodo},
	model.TaskTesting:    {model.TaskCompleted, model.TaskInProgress, model.TaskTodo},
	model.TaskCompleted:  {model.TaskTodo, model.TaskInProgress},
	model.TaskBlocked:    {model.TaskTodo, model.TaskInProgress},
}

// Initial is the status of a freshly created task.
const Initial = model.TaskTodo

// AllowedTargets returns a copy of the statuses reachable from from in one step.
func AllowedTargets(from model.TaskStatus) []model.TaskStatus {
	targets := transitions[from]
	out := make([]model.TaskStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether from -> to is an edge of the table.
func CanTransition(from, to model.TaskStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AttemptTransition moves t to status to when the edge exists and reports
// whether it did. On rejection t is left untouched. On acceptance the
// completion date follows the status: entering completed stamps now unless a
// date is already present, leaving completed clears it.
func AttemptTransition(t *model.Task, to model.TaskStatus, now time.Time) bool {
	if !CanTransition(t.Status, to) {
		return false
	}
	t.Status = to
	if to == model.TaskCompleted {
		if t.CompletedDate == nil {
			stamp := now
			t.CompletedDate = &stamp
		}
	} else {
		t.CompletedDate = nil
	}
	return true
}
