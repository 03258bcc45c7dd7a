package service

import (
	"errors"
	"fmt"

	"taskmaster/internal/model"
	"taskmaster/pkg/rbac"
)

// ErrInvalidCredentials is returned by Login for an unknown email, a wrong
// password or a deactivated account alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports bad input. Nothing was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ForbiddenError wraps the denied authorization decision.
type ForbiddenError struct {
	Denied *rbac.PermissionDeniedError
}

func (e *ForbiddenError) Error() string {
	return e.Denied.Error()
}

func (e *ForbiddenError) Unwrap() error {
	return e.Denied
}

// InvalidTransitionError reports a status change missing from the workflow table. The task is unchanged.
type InvalidTransitionError struct {
	From model.TaskStatus
	To   model.TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// ConflictError reports a uniqueness clash or a write that lost a race.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// authorize turns a failed rbac check into a *ForbiddenError.
func authorize(action string, userID int64, p *model.Project, t *model.Task) error {
	err := rbac.Check(action, userID, p, t)
	if err == nil {
		return nil
	}
	var denied *rbac.PermissionDeniedError
	if errors.As(err, &denied) {
		return &ForbiddenError{Denied: denied}
	}
	return err
}
