package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/pkg/util"

	"go.uber.org/zap"
)

const (
	minUsername = 3
	maxUsername = 30
	minPassword = 6
)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < minUsername || n > maxUsername {
		return nil, invalid("username", fmt.Sprintf("must be %d to %d characters", minUsername, maxUsername))
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, invalid("email", "is not a valid address")
	}
	email := strings.ToLower(addr.Address)
	if len(in.Password) < minPassword {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPassword))
	}
	role := in.Role
	if role == "" {
		role = model.RoleDeveloper
	}
	if !model.ValidUserRole(role) {
		return nil, invalid("role", "must be one of admin, manager, developer, tester")
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "username or email already registered"}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := util.GenerateJWT(u.ID, s.auth.Secret, s.auth.TTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.log(ctx).Info("User registered", zap.Int64("user_id", u.ID))
	return &AuthResult{Token: token, User: u}, nil
}

// Login checks the password and stamps the last login time.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive || !util.CheckPassword(password, u.PasswordHash) {
		s.log(ctx).Warn("Login rejected", zap.Int64("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLogin = &now

	token, err := util.GenerateJWT(u.ID, s.auth.Secret, s.auth.TTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *Service) Profile(ctx context.Context, requester int64) (*model.User, error) {
	return s.loadUser(ctx, requester)
}
