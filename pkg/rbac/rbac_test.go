package rbac

import (
	"errors"
	"testing"

	"taskmaster/internal/model"
)

const (
	owner    int64 = 1
	lead     int64 = 2
	dev      int64 = 3
	outsider int64 = 4
)

func fixtureProject() *model.Project {
	return &model.Project{
		ID:      10,
		OwnerID: owner,
		Team: []model.TeamMember{
			{UserID: owner, Role: model.TeamRoleLead},
			{UserID: lead, Role: model.TeamRoleLead},
			{UserID: dev, Role: model.TeamRoleDeveloper},
		},
	}
}

func TestHasProjectAccess(t *testing.T) {
	p := fixtureProject()
	for _, u := range []int64{owner, lead, dev} {
		if !HasProjectAccess(u, p) {
			t.Errorf("user %d should have access", u)
		}
	}
	if HasProjectAccess(outsider, p) {
		t.Error("outsider must not have access")
	}
	if HasProjectAccess(owner, nil) {
		t.Error("nil project grants nothing")
	}
}

func TestOwnerWithoutTeamEntryStillHasAccess(t *testing.T) {
	p := &model.Project{ID: 1, OwnerID: owner}
	if !HasProjectAccess(owner, p) || !IsProjectAdmin(owner, p) {
		t.Fatal("owner must keep access even when missing from the team list")
	}
}

func TestIsProjectAdmin(t *testing.T) {
	p := fixtureProject()
	cases := []struct {
		user int64
		want bool
	}{
		{user: owner, want: true},
		{user: lead, want: true},
		{user: dev, want: false},
		{user: outsider, want: false},
	}
	for _, tc := range cases {
		if got := IsProjectAdmin(tc.user, p); got != tc.want {
			t.Errorf("IsProjectAdmin(%d) = %v, want %v", tc.user, got, tc.want)
		}
	}
}

func TestDeletePermissions(t *testing.T) {
	p := fixtureProject()
	if !CanDeleteProject(owner, p) {
		t.Error("owner can delete project")
	}
	if CanDeleteProject(lead, p) {
		t.Error("lead cannot delete project")
	}

	task := &model.Task{ProjectID: p.ID, ReporterID: dev}
	cases := []struct {
		user int64
		want bool
	}{
		{user: owner, want: true},
		{user: dev, want: true},
		{user: lead, want: false},
		{user: outsider, want: false},
	}
	for _, tc := range cases {
		if got := CanDeleteTask(tc.user, p, task); got != tc.want {
			t.Errorf("CanDeleteTask(%d) = %v, want %v", tc.user, got, tc.want)
		}
	}
}

func TestCheckReturnsTypedError(t *testing.T) {
	p := fixtureProject()
	err := Check(ActionUpdateProject, dev, p, nil)

	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected PermissionDeniedError, got %v", err)
	}
	if denied.UserID != dev || denied.ProjectID != p.ID || denied.Action != ActionUpdateProject {
		t.Fatalf("unexpected error fields: %+v", denied)
	}

	if err := Check(ActionReadTask, dev, p, nil); err != nil {
		t.Fatalf("member read must pass, got %v", err)
	}
	if err := Check("project:unknown", owner, p, nil); err == nil {
		t.Fatal("unknown action must be denied")
	}
}
