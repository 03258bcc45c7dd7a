package service

import (
	"context"
	"fmt"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type UserQuery struct {
	Search string
	Role   string
	Page   int
	Limit  int
}

type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

type UserPage struct {
	Users      []model.User `json:"users"`
	Pagination Pagination   `json:"pagination"`
}

// ListUsers pages through active users. Page and limit default to 1 and 20.
func (s *Service) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultPageSize
	}
	if q.Page < 1 {
		return nil, invalid("page", "must be at least 1")
	}
	if q.Limit < 1 || q.Limit > maxPageSize {
		return nil, invalid("limit", fmt.Sprintf("must be between 1 and %d", maxPageSize))
	}
	if q.Role != "" && !model.ValidUserRole(q.Role) {
		return nil, invalid("role", "must be one of admin, manager, developer, tester")
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Search: q.Search,
		Role:   q.Role,
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &UserPage{
		Users: users,
		Pagination: Pagination{
			Current: q.Page,
			Pages:   (total + q.Limit - 1) / q.Limit,
			Total:   total,
			Limit:   q.Limit,
		},
	}, nil
}

type UserStats struct {
	TotalUsers       int                    `json:"total_users"`
	RoleDistribution []repository.RoleCount `json:"role_distribution"`
}

func (s *Service) UserStats(ctx context.Context) (*UserStats, error) {
	roles, err := s.users.RoleStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	out := &UserStats{RoleDistribution: roles}
	for _, r := range roles {
		out.TotalUsers += r.Count
	}
	return out, nil
}

// GetUser hides deactivated accounts.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}
