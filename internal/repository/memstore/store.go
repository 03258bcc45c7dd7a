// Package memstore keeps the whole data set in process memory. It satisfies
// the same store contracts as the PostgreSQL repositories and backs tests and
// storage.driver=memory runs.
package memstore

import (
	"strings"
	"sync"
	"time"

	"taskmaster/internal/model"
)

type data struct {
	mu sync.RWMutex

	users      map[int64]*model.User
	projects   map[int64]*model.Project
	tasks      map[int64]*model.Task
	milestones map[int64]*model.Milestone

	nextID int64
	now    func() time.Time
}

// Store groups the per-entity views over one shared data set.
type Store struct {
	d *data
}

func New() *Store {
	return &Store{d: &data{
		users:      make(map[int64]*model.User),
		projects:   make(map[int64]*model.Project),
		tasks:      make(map[int64]*model.Task),
		milestones: make(map[int64]*model.Milestone),
		now:        time.Now,
	}}
}

// WithClock replaces the time source used for created/updated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.d.mu.Lock()
	s.d.now = now
	s.d.mu.Unlock()
	return s
}

func (s *Store) Users() *UserStore           { return &UserStore{d: s.d} }
func (s *Store) Projects() *ProjectStore     { return &ProjectStore{d: s.d} }
func (s *Store) Tasks() *TaskStore           { return &TaskStore{d: s.d} }
func (s *Store) Milestones() *MilestoneStore { return &MilestoneStore{d: s.d} }
func (s *Store) Stats() *StatsStore          { return &StatsStore{d: s.d} }

// id is monotonic across all entities; callers hold the write lock.
func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func anyContainsFold(values []string, sub string) bool {
	for _, v := range values {
		if containsFold(v, sub) {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.LastLogin = cloneTime(u.LastLogin)
	return &c
}

func cloneProject(p *model.Project) *model.Project {
	c := *p
	c.EndDate = cloneTime(p.EndDate)
	c.Tags = cloneStrings(p.Tags)
	c.Team = make([]model.TeamMember, len(p.Team))
	copy(c.Team, p.Team)
	c.Milestones = []model.Milestone{}
	return &c
}

func cloneTask(t *model.Task) *model.Task {
	c := *t
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		c.AssigneeID = &v
	}
	c.EstimatedHours = cloneInt(t.EstimatedHours)
	c.ActualHours = cloneInt(t.ActualHours)
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedDate = cloneTime(t.CompletedDate)
	c.Tags = cloneStrings(t.Tags)
	c.Comments = make([]model.Comment, len(t.Comments))
	copy(c.Comments, t.Comments)
	c.Subtasks = make([]model.Subtask, len(t.Subtasks))
	copy(c.Subtasks, t.Subtasks)
	c.Dependencies = make([]int64, len(t.Dependencies))
	copy(c.Dependencies, t.Dependencies)
	return &c
}
