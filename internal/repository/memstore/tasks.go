package memstore

import (
	"context"
	"sort"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

type TaskStore struct {
	d *data
}

func (s *TaskStore) Create(_ context.Context, t *model.Task) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.projects[t.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.d.users[t.ReporterID]; !ok {
		return repository.ErrNotFound
	}
	if t.AssigneeID != nil {
		if _, ok := s.d.users[*t.AssigneeID]; !ok {
			return repository.ErrNotFound
		}
	}

	now := s.d.now()
	t.ID = s.d.id()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Comments == nil {
		t.Comments = []model.Comment{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []model.Subtask{}
	}
	if t.Dependencies == nil {
		t.Dependencies = []int64{}
	}
	s.d.tasks[t.ID] = cloneTask(t)
	return nil
}

func (s *TaskStore) FindByID(_ context.Context, id int64) (*model.Task, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	t, ok := s.d.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTask(t), nil
}

// List returns tasks the user is assigned to or reported, newest first.
func (s *TaskStore) List(_ context.Context, f repository.TaskFilter) ([]model.Task, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	out := []model.Task{}
	for _, t := range s.d.tasks {
		involved := t.ReporterID == f.UserID || (t.AssigneeID != nil && *t.AssigneeID == f.UserID)
		if !involved {
			continue
		}
		if f.ProjectID != nil && t.ProjectID != *f.ProjectID {
			continue
		}
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		out = append(out, *cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *TaskStore) Search(_ context.Context, projectIDs []int64, q string) ([]model.Task, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	out := []model.Task{}
	for _, t := range s.d.tasks {
		if !containsID(projectIDs, t.ProjectID) {
			continue
		}
		if containsFold(t.Title, q) || containsFold(t.Description, q) || anyContainsFold(t.Tags, q) {
			out = append(out, *cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > repository.SearchLimit {
		out = out[:repository.SearchLimit]
	}
	return out, nil
}

func (s *TaskStore) StatusesByProject(_ context.Context, projectID int64) ([]model.TaskStatus, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	statuses := []model.TaskStatus{}
	for _, t := range s.d.tasks {
		if t.ProjectID == projectID {
			statuses = append(statuses, t.Status)
		}
	}
	return statuses, nil
}

func (s *TaskStore) CountInProject(_ context.Context, projectID int64, ids []int64) (int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	n := 0
	for _, id := range ids {
		if t, ok := s.d.tasks[id]; ok && t.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

// Update replaces the mutable fields in one step under the write lock,
// provided the stored status still equals prevStatus.
func (s *TaskStore) Update(_ context.Context, t *model.Task, prevStatus model.TaskStatus) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	cur, ok := s.d.tasks[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status != prevStatus {
		return repository.ErrConflict
	}
	if t.AssigneeID != nil {
		if _, ok := s.d.users[*t.AssigneeID]; !ok {
			return repository.ErrNotFound
		}
	}

	next := cloneTask(t)
	next.ProjectID = cur.ProjectID
	next.ReporterID = cur.ReporterID
	next.Comments = cur.Comments
	next.Subtasks = cur.Subtasks
	next.Dependencies = cur.Dependencies
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.d.now()
	s.d.tasks[t.ID] = next
	t.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *TaskStore) Delete(_ context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, ok := s.d.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.d.tasks, id)
	for _, t := range s.d.tasks {
		t.Dependencies = withoutRemoved(t.Dependencies, s.d.tasks)
	}
	return nil
}

func (s *TaskStore) AddComment(_ context.Context, taskID int64, c *model.Comment) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	t, ok := s.d.tasks[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	c.ID = s.d.id()
	t.Comments = append(t.Comments, *c)
	return nil
}

func (s *TaskStore) AddSubtask(_ context.Context, taskID int64, st *model.Subtask) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	t, ok := s.d.tasks[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	st.ID = s.d.id()
	t.Subtasks = append(t.Subtasks, *st)
	return nil
}

func (s *TaskStore) ToggleSubtask(_ context.Context, taskID, subtaskID int64) (*model.Subtask, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	t, ok := s.d.tasks[taskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			t.Subtasks[i].Completed = !t.Subtasks[i].Completed
			out := t.Subtasks[i]
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}
