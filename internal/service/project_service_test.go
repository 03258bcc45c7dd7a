package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskmaster/internal/events"
	"taskmaster/internal/model"
)

func TestCreateProjectMakesRequesterOwnerAndLead(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.CreateProject(context.Background(), f.member.ID, CreateProjectInput{
		Name:        "  Gemini ",
		Description: "Second program",
		Tags:        []string{"space", " space", ""},
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if p.OwnerID != f.member.ID || p.Name != "Gemini" {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.Status != model.ProjectPlanning || p.Priority != model.PriorityMedium || p.Progress != 0 {
		t.Fatalf("unexpected defaults: status=%s priority=%s progress=%d", p.Status, p.Priority, p.Progress)
	}
	if !p.StartDate.Equal(fixedNow) {
		t.Fatalf("start date = %v, want %v", p.StartDate, fixedNow)
	}
	if len(p.Team) != 1 || p.Team[0].UserID != f.member.ID || p.Team[0].Role != model.TeamRoleLead {
		t.Fatalf("team = %+v", p.Team)
	}
	if len(p.Tags) != 1 {
		t.Fatalf("tags = %v", p.Tags)
	}
	if got := f.pub.keys(); len(got) != 1 || got[0] != events.ProjectCreated {
		t.Fatalf("events = %v", got)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   CreateProjectInput
	}{
		{"missing name", CreateProjectInput{Description: "d"}},
		{"missing description", CreateProjectInput{Name: "n"}},
		{"name too long", CreateProjectInput{Name: strings.Repeat("x", 101), Description: "d"}},
		{"description too long", CreateProjectInput{Name: "n", Description: strings.Repeat("x", 1001)}},
		{"bad priority", CreateProjectInput{Name: "n", Description: "d", Priority: "urgent"}},
		{"negative budget", CreateProjectInput{Name: "n", Description: "d", Budget: &model.Budget{Allocated: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateProject(context.Background(), f.owner.ID, tt.in)
			assertValidation(t, err)
		})
	}
}

func TestProjectReadAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, u := range []*model.User{f.owner, f.lead, f.member} {
		if _, err := f.svc.GetProject(ctx, u.ID, f.project.ID); err != nil {
			t.Fatalf("%s should read the project: %v", u.Username, err)
		}
	}
	_, err := f.svc.GetProject(ctx, f.outsider.ID, f.project.ID)
	assertForbidden(t, err)

	_, err = f.svc.GetProject(ctx, f.owner.ID, 9999)
	assertNotFound(t, err)

	list, err := f.svc.ListProjects(ctx, f.outsider.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("outsider list = %v, %v", list, err)
	}
	list, err = f.svc.ListProjects(ctx, f.member.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("member list = %v, %v", list, err)
	}
}

func TestAddTeamMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	newcomer := mustUser(t, f.store, "newcomer")

	// developer 不是管理员
	_, err := f.svc.AddTeamMember(ctx, f.member.ID, f.project.ID, newcomer.ID, "")
	assertForbidden(t, err)

	p, err := f.svc.AddTeamMember(ctx, f.lead.ID, f.project.ID, newcomer.ID, "")
	if err != nil {
		t.Fatalf("lead AddTeamMember: %v", err)
	}
	m, ok := p.Member(newcomer.ID)
	if !ok || m.Role != model.TeamRoleDeveloper {
		t.Fatalf("member entry = %+v, %v", m, ok)
	}

	_, err = f.svc.AddTeamMember(ctx, f.owner.ID, f.project.ID, newcomer.ID, model.TeamRoleTester)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError for a repeat add, got %v", err)
	}

	stored, _ := f.store.Projects().FindByID(ctx, f.project.ID)
	count := 0
	for _, tm := range stored.Team {
		if tm.UserID == newcomer.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("newcomer appears %d times on the team", count)
	}

	_, err = f.svc.AddTeamMember(ctx, f.owner.ID, f.project.ID, 9999, "")
	assertNotFound(t, err)

	_, err = f.svc.AddTeamMember(ctx, f.owner.ID, f.project.ID, newcomer.ID, "manager")
	assertValidation(t, err)
}

func TestRemoveTeamMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RemoveTeamMember(ctx, f.lead.ID, f.project.ID, f.owner.ID)
	assertValidation(t, err)

	p, err := f.svc.RemoveTeamMember(ctx, f.lead.ID, f.project.ID, f.member.ID)
	if err != nil {
		t.Fatalf("RemoveTeamMember: %v", err)
	}
	if _, ok := p.Member(f.member.ID); ok {
		t.Fatal("member still on the team")
	}

	// 移除后失去访问权限
	_, err = f.svc.GetProject(ctx, f.member.ID, f.project.ID)
	assertForbidden(t, err)

	_, err = f.svc.RemoveTeamMember(ctx, f.lead.ID, f.project.ID, f.member.ID)
	assertNotFound(t, err)
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.task(t, f.owner.ID, "a")

	status := model.ProjectInProgress
	name := "Apollo 11"
	p, err := f.svc.UpdateProject(ctx, f.lead.ID, f.project.ID, ProjectPatch{
		Name:   &name,
		Status: &status,
		Budget: &model.Budget{Allocated: 1000, Spent: 250},
	})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if p.Name != name || p.Status != status || p.Budget.Remaining() != 750 {
		t.Fatalf("patch not applied: %+v", p)
	}

	_, err = f.svc.UpdateProject(ctx, f.member.ID, f.project.ID, ProjectPatch{Name: &name})
	assertForbidden(t, err)

	bogus := "archived"
	_, err = f.svc.UpdateProject(ctx, f.owner.ID, f.project.ID, ProjectPatch{Status: &bogus})
	assertValidation(t, err)
}

func TestAddMilestone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.AddMilestone(ctx, f.lead.ID, f.project.ID, MilestoneInput{Name: "Beta"})
	if err != nil {
		t.Fatalf("AddMilestone: %v", err)
	}
	if m.Status != model.MilestonePending {
		t.Fatalf("status = %s", m.Status)
	}

	_, err = f.svc.AddMilestone(ctx, f.member.ID, f.project.ID, MilestoneInput{Name: "GA"})
	assertForbidden(t, err)

	p, _ := f.svc.GetProject(ctx, f.owner.ID, f.project.ID)
	if len(p.Milestones) != 1 || p.Milestones[0].Name != "Beta" {
		t.Fatalf("milestones = %+v", p.Milestones)
	}
}

func TestDeleteProjectOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, f.member.ID, "a")

	for _, u := range []*model.User{f.outsider, f.member, f.lead} {
		assertForbidden(t, f.svc.DeleteProject(ctx, u.ID, f.project.ID))
		if _, err := f.store.Projects().FindByID(ctx, f.project.ID); err != nil {
			t.Fatalf("project gone after forbidden delete by %s: %v", u.Username, err)
		}
	}

	f.pub.events = nil
	if err := f.svc.DeleteProject(ctx, f.owner.ID, f.project.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	_, err := f.svc.GetProject(ctx, f.owner.ID, f.project.ID)
	assertNotFound(t, err)
	_, err = f.svc.GetTask(ctx, f.owner.ID, task.ID)
	assertNotFound(t, err)

	if len(f.pub.events) != 1 || f.pub.events[0].key != events.ProjectDeleted {
		t.Fatalf("events = %v", f.pub.keys())
	}
	if payload := f.pub.events[0].payload.(events.ProjectPayload); payload.TasksDeleted != 1 {
		t.Fatalf("tasks_deleted = %d, want 1", payload.TasksDeleted)
	}
}
