package memstore

import (
	"context"
	"sort"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

type ProjectStore struct {
	d *data
}

func (s *ProjectStore) Create(_ context.Context, p *model.Project) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.users[p.OwnerID]; !ok {
		return repository.ErrNotFound
	}
	seen := map[int64]bool{}
	for _, m := range p.Team {
		if seen[m.UserID] {
			return repository.ErrDuplicate
		}
		seen[m.UserID] = true
	}

	now := s.d.now()
	p.ID = s.d.id()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Milestones == nil {
		p.Milestones = []model.Milestone{}
	}
	s.d.projects[p.ID] = cloneProject(p)
	return nil
}

func (s *ProjectStore) FindByID(_ context.Context, id int64) (*model.Project, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	p, ok := s.d.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneProject(p)
	out.Milestones = s.d.milestonesOf(id)
	return out, nil
}

func (d *data) milestonesOf(projectID int64) []model.Milestone {
	out := []model.Milestone{}
	for _, m := range d.milestones {
		if m.ProjectID == projectID {
			c := *m
			c.DueDate = cloneTime(m.DueDate)
			c.CompletedAt = cloneTime(m.CompletedAt)
			out = append(out, c)
		}
	}
	// due date nulls last, then id
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.ID < b.ID
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.ID < b.ID
	})
	return out
}

func (d *data) accessible(userID int64, p *model.Project) bool {
	if p.OwnerID == userID {
		return true
	}
	_, ok := p.Member(userID)
	return ok
}

// ListForUser returns owned and joined projects, newest first.
func (s *ProjectStore) ListForUser(_ context.Context, userID int64) ([]model.Project, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	out := []model.Project{}
	for _, p := range s.d.projects {
		if s.d.accessible(userID, p) {
			out = append(out, *cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *ProjectStore) AccessibleIDs(_ context.Context, userID int64) ([]int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	ids := []int64{}
	for id, p := range s.d.projects {
		if s.d.accessible(userID, p) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *ProjectStore) Search(_ context.Context, ids []int64, q string) ([]model.Project, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	out := []model.Project{}
	for _, p := range s.d.projects {
		if !containsID(ids, p.ID) {
			continue
		}
		if containsFold(p.Name, q) || containsFold(p.Description, q) || anyContainsFold(p.Tags, q) {
			out = append(out, *cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > repository.SearchLimit {
		out = out[:repository.SearchLimit]
	}
	return out, nil
}

// Update copies the user-editable fields; progress, owner and team are kept.
func (s *ProjectStore) Update(_ context.Context, p *model.Project) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	cur, ok := s.d.projects[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Status = p.Status
	cur.Priority = p.Priority
	cur.EndDate = cloneTime(p.EndDate)
	cur.Tags = cloneStrings(p.Tags)
	cur.Budget = p.Budget
	cur.UpdatedAt = s.d.now()
	p.UpdatedAt = cur.UpdatedAt
	return nil
}

func (s *ProjectStore) UpdateProgress(_ context.Context, id int64, progress int) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	p, ok := s.d.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Progress = progress
	p.UpdatedAt = s.d.now()
	return nil
}

func (s *ProjectStore) AddMember(_ context.Context, projectID int64, m model.TeamMember) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	p, ok := s.d.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.d.users[m.UserID]; !ok {
		return repository.ErrNotFound
	}
	if _, exists := p.Member(m.UserID); exists {
		return repository.ErrDuplicate
	}
	p.Team = append(p.Team, m)
	return nil
}

func (s *ProjectStore) RemoveMember(_ context.Context, projectID, userID int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	p, ok := s.d.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, m := range p.Team {
		if m.UserID == userID {
			p.Team = append(p.Team[:i], p.Team[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Delete drops the project with its tasks and milestones under one lock.
func (s *ProjectStore) Delete(_ context.Context, id int64) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.projects[id]; !ok {
		return 0, repository.ErrNotFound
	}

	var removed int64
	for tid, t := range s.d.tasks {
		if t.ProjectID == id {
			delete(s.d.tasks, tid)
			removed++
		}
	}
	for _, t := range s.d.tasks {
		t.Dependencies = withoutRemoved(t.Dependencies, s.d.tasks)
	}
	for mid, m := range s.d.milestones {
		if m.ProjectID == id {
			delete(s.d.milestones, mid)
		}
	}
	delete(s.d.projects, id)
	return removed, nil
}

func withoutRemoved(deps []int64, tasks map[int64]*model.Task) []int64 {
	out := deps[:0]
	for _, dep := range deps {
		if _, ok := tasks[dep]; ok {
			out = append(out, dep)
		}
	}
	return out
}

type MilestoneStore struct {
	d *data
}

func (s *MilestoneStore) Insert(_ context.Context, m *model.Milestone) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.projects[m.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = s.d.id()
	c := *m
	c.DueDate = cloneTime(m.DueDate)
	c.CompletedAt = cloneTime(m.CompletedAt)
	s.d.milestones[m.ID] = &c
	return nil
}

func (s *MilestoneStore) FindByProjectID(_ context.Context, projectID int64) ([]model.Milestone, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return s.d.milestonesOf(projectID), nil
}
