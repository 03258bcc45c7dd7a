package memstore

import (
	"context"
	"sort"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

type StatsStore struct {
	d *data
}

func (s *StatsStore) TaskStats(_ context.Context, f repository.StatsFilter) ([]repository.TaskStatusStat, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	type acc struct {
		count              int
		estSum, actSum     int
		estCount, actCount int
	}
	groups := map[model.TaskStatus]*acc{}
	for _, t := range s.d.tasks {
		if !containsID(f.ProjectIDs, t.ProjectID) || t.CreatedAt.Before(f.Since) {
			continue
		}
		a := groups[t.Status]
		if a == nil {
			a = &acc{}
			groups[t.Status] = a
		}
		a.count++
		if t.EstimatedHours != nil {
			a.estSum += *t.EstimatedHours
			a.estCount++
		}
		if t.ActualHours != nil {
			a.actSum += *t.ActualHours
			a.actCount++
		}
	}

	out := []repository.TaskStatusStat{}
	for status, a := range groups {
		out = append(out, repository.TaskStatusStat{
			Status:            string(status),
			Count:             a.count,
			AvgEstimatedHours: average(a.estSum, a.estCount),
			AvgActualHours:    average(a.actSum, a.actCount),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// average is nil without samples, like SQL AVG over NULLs.
func average(sum, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := float64(sum) / float64(n)
	return &v
}

func (s *StatsStore) ProjectStats(_ context.Context, f repository.StatsFilter) ([]repository.ProjectStatusStat, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	groups := map[string]*repository.ProjectStatusStat{}
	progress := map[string]int{}
	for _, p := range s.d.projects {
		if !containsID(f.ProjectIDs, p.ID) {
			continue
		}
		g := groups[p.Status]
		if g == nil {
			g = &repository.ProjectStatusStat{Status: p.Status}
			groups[p.Status] = g
		}
		g.Count++
		g.TotalBudget += p.Budget.Allocated
		g.TotalSpent += p.Budget.Spent
		progress[p.Status] += p.Progress
	}

	out := []repository.ProjectStatusStat{}
	for status, g := range groups {
		g.AvgProgress = float64(progress[status]) / float64(g.Count)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (s *StatsStore) Workload(_ context.Context, f repository.StatsFilter) ([]repository.WorkloadStat, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	groups := map[int64]*repository.WorkloadStat{}
	for _, t := range s.d.tasks {
		if t.AssigneeID == nil || !containsID(f.ProjectIDs, t.ProjectID) {
			continue
		}
		u, ok := s.d.users[*t.AssigneeID]
		if !ok {
			continue
		}
		w := groups[u.ID]
		if w == nil {
			w = &repository.WorkloadStat{
				UserID:    u.ID,
				Username:  u.Username,
				FirstName: u.FirstName,
				LastName:  u.LastName,
			}
			groups[u.ID] = w
		}
		w.TaskCount++
		if t.Status == model.TaskCompleted {
			w.CompletedTasks++
		}
		if t.EstimatedHours != nil {
			w.TotalEstimatedHours += *t.EstimatedHours
		}
		if t.ActualHours != nil {
			w.TotalActualHours += *t.ActualHours
		}
	}

	out := []repository.WorkloadStat{}
	for _, w := range groups {
		w.Finish()
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskCount != out[j].TaskCount {
			return out[i].TaskCount > out[j].TaskCount
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *StatsStore) Trends(_ context.Context, f repository.StatsFilter) ([]repository.TrendPoint, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	groups := map[string]*repository.TrendPoint{}
	for _, t := range s.d.tasks {
		if !containsID(f.ProjectIDs, t.ProjectID) || t.CreatedAt.Before(f.Since) {
			continue
		}
		key := repository.PeriodKey(t.CreatedAt, f.Bucket)
		p := groups[key]
		if p == nil {
			p = &repository.TrendPoint{Period: key}
			groups[key] = p
		}
		p.Created++
		if t.Status == model.TaskCompleted {
			p.Completed++
		}
	}

	out := []repository.TrendPoint{}
	for _, p := range groups {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (s *StatsStore) Productivity(_ context.Context, f repository.StatsFilter) ([]repository.ProductivityStat, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	groups := map[int64]*repository.ProductivityStat{}
	daysSum := map[int64]float64{}
	daysCount := map[int64]int{}
	for _, t := range s.d.tasks {
		if t.AssigneeID == nil || !containsID(f.ProjectIDs, t.ProjectID) || t.CreatedAt.Before(f.Since) {
			continue
		}
		u, ok := s.d.users[*t.AssigneeID]
		if !ok {
			continue
		}
		p := groups[u.ID]
		if p == nil {
			p = &repository.ProductivityStat{
				UserID:    u.ID,
				Username:  u.Username,
				FirstName: u.FirstName,
				LastName:  u.LastName,
			}
			groups[u.ID] = p
		}
		p.TotalTasks++
		if t.Status == model.TaskCompleted {
			p.CompletedTasks++
		}
		if t.CompletedDate != nil {
			daysSum[u.ID] += t.CompletedDate.Sub(t.CreatedAt).Hours() / 24
			daysCount[u.ID]++
		}
	}

	out := []repository.ProductivityStat{}
	for id, p := range groups {
		if n := daysCount[id]; n > 0 {
			avg := daysSum[id] / float64(n)
			p.AvgCompletionDays = &avg
		}
		p.Finish()
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedTasks != out[j].CompletedTasks {
			return out[i].CompletedTasks > out[j].CompletedTasks
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
