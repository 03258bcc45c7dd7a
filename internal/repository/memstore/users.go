package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

type UserStore struct {
	d *data
}

func (s *UserStore) Create(_ context.Context, u *model.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, existing := range s.d.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}

	now := s.d.now()
	u.ID = s.d.id()
	u.IsActive = true
	u.CreatedAt = now
	u.UpdatedAt = now
	s.d.users[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) FindByID(_ context.Context, id int64) (*model.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	u, ok := s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	for _, u := range s.d.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	u, ok := s.d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	u.UpdatedAt = s.d.now()
	return nil
}

// List mirrors the SQL ordering: first name, last name, id.
func (s *UserStore) List(_ context.Context, f repository.UserFilter) ([]model.User, int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	matched := []model.User{}
	for _, u := range s.d.users {
		if !u.IsActive {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" &&
			!containsFold(u.Username, f.Search) &&
			!containsFold(u.FirstName, f.Search) &&
			!containsFold(u.LastName, f.Search) &&
			!containsFold(u.Email, f.Search) {
			continue
		}
		matched = append(matched, *cloneUser(u))
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *UserStore) RoleStats(_ context.Context) ([]repository.RoleCount, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	counts := map[string]int{}
	for _, u := range s.d.users {
		if u.IsActive {
			counts[u.Role]++
		}
	}
	out := []repository.RoleCount{}
	for role, n := range counts {
		out = append(out, repository.RoleCount{Role: role, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

func (s *UserStore) Search(ctx context.Context, q string) ([]model.User, error) {
	users, _, err := s.List(ctx, repository.UserFilter{Search: q, Limit: repository.SearchLimit})
	return users, err
}
