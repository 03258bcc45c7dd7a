package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/pkg/rbac"
)

// Time ranges accepted by Statistics.
const (
	RangeDay   = "day"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

// Search kinds.
const (
	SearchAll      = "all"
	SearchTasks    = "tasks"
	SearchProjects = "projects"
	SearchUsers    = "users"
)

// RangeStart returns the lower bound of a time range relative to now.
// day and week are rolling windows; month and year start at the calendar boundary.
func RangeStart(timeRange string, now time.Time) (time.Time, error) {
	switch timeRange {
	case RangeDay:
		return now.Add(-24 * time.Hour), nil
	case RangeWeek:
		return now.Add(-7 * 24 * time.Hour), nil
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	case RangeYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, invalid("time_range", "must be one of day, week, month, year")
}

type StatsQuery struct {
	ProjectID *int64
	TimeRange string
}

type StatsFilters struct {
	ProjectID *int64 `json:"project_id,omitempty"`
	TimeRange string `json:"time_range"`
}

type Statistics struct {
	TaskStatistics     []repository.TaskStatusStat    `json:"task_statistics"`
	ProjectStatistics  []repository.ProjectStatusStat `json:"project_statistics"`
	WorkloadStatistics []repository.WorkloadStat      `json:"workload_statistics"`
	Filters            StatsFilters                   `json:"filters"`
}

// Statistics aggregates over one project (requires access) or over every
// project the requester can see. Only the task figures honour the time range.
func (s *Service) Statistics(ctx context.Context, requester int64, q StatsQuery) (*Statistics, error) {
	if q.TimeRange == "" {
		q.TimeRange = RangeMonth
	}
	since, err := RangeStart(q.TimeRange, s.now())
	if err != nil {
		return nil, err
	}

	var ids []int64
	if q.ProjectID != nil {
		p, err := s.loadProject(ctx, *q.ProjectID)
		if err != nil {
			return nil, err
		}
		if err := authorize(rbac.ActionReadProject, requester, p, nil); err != nil {
			return nil, err
		}
		ids = []int64{p.ID}
	} else {
		if ids, err = s.projects.AccessibleIDs(ctx, requester); err != nil {
			return nil, fmt.Errorf("accessible projects: %w", err)
		}
	}

	f := repository.StatsFilter{ProjectIDs: ids, Since: since}
	out := &Statistics{Filters: StatsFilters{ProjectID: q.ProjectID, TimeRange: q.TimeRange}}
	if out.TaskStatistics, err = s.stats.TaskStats(ctx, f); err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	if out.ProjectStatistics, err = s.stats.ProjectStats(ctx, f); err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	if out.WorkloadStatistics, err = s.stats.Workload(ctx, f); err != nil {
		return nil, fmt.Errorf("workload stats: %w", err)
	}
	return out, nil
}

type Performance struct {
	TimeRange        string                        `json:"time_range"`
	CompletionTrends []repository.TrendPoint       `json:"completion_trends"`
	TeamProductivity []repository.ProductivityStat `json:"team_productivity"`
}

// Performance reports completion trends and per-assignee productivity for
// tasks created within the time range in the requester's projects. Trends are
// bucketed by day, or by month for the year range.
func (s *Service) Performance(ctx context.Context, requester int64, timeRange string) (*Performance, error) {
	if timeRange == "" {
		timeRange = RangeMonth
	}
	since, err := RangeStart(timeRange, s.now())
	if err != nil {
		return nil, err
	}
	ids, err := s.projects.AccessibleIDs(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("accessible projects: %w", err)
	}

	f := repository.StatsFilter{ProjectIDs: ids, Since: since, Bucket: repository.BucketDay}
	if timeRange == RangeYear {
		f.Bucket = repository.BucketMonth
	}

	out := &Performance{TimeRange: timeRange}
	if out.CompletionTrends, err = s.stats.Trends(ctx, f); err != nil {
		return nil, fmt.Errorf("completion trends: %w", err)
	}
	if out.TeamProductivity, err = s.stats.Productivity(ctx, f); err != nil {
		return nil, fmt.Errorf("productivity stats: %w", err)
	}
	return out, nil
}

type SearchResult struct {
	Tasks    []model.Task    `json:"tasks,omitempty"`
	Projects []model.Project `json:"projects,omitempty"`
	Users    []model.User    `json:"users,omitempty"`
}

// Search looks for q in the requester's tasks and projects and in active users.
func (s *Service) Search(ctx context.Context, requester int64, q, kind string) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q", "is required")
	}
	if kind == "" {
		kind = SearchAll
	}
	switch kind {
	case SearchAll, SearchTasks, SearchProjects, SearchUsers:
	default:
		return nil, invalid("type", "must be one of all, tasks, projects, users")
	}

	out := &SearchResult{}
	if kind != SearchUsers {
		ids, err := s.projects.AccessibleIDs(ctx, requester)
		if err != nil {
			return nil, fmt.Errorf("accessible projects: %w", err)
		}
		if kind == SearchAll || kind == SearchTasks {
			if out.Tasks, err = s.tasks.Search(ctx, ids, q); err != nil {
				return nil, fmt.Errorf("search tasks: %w", err)
			}
		}
		if kind == SearchAll || kind == SearchProjects {
			if out.Projects, err = s.projects.Search(ctx, ids, q); err != nil {
				return nil, fmt.Errorf("search projects: %w", err)
			}
		}
	}
	if kind == SearchAll || kind == SearchUsers {
		users, err := s.users.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("search users: %w", err)
		}
		out.Users = users
	}
	return out, nil
}
