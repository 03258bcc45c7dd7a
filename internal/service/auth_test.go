package service

import (
	"context"
	"errors"
	"testing"

	"taskmaster/internal/model"
	"taskmaster/internal/repository/memstore"
	"taskmaster/pkg/util"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(memstore.New(), nil)

	reg, err := svc.Register(ctx, RegisterInput{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Role != model.RoleDeveloper || reg.User.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %+v", reg.User)
	}
	if reg.User.PasswordHash == "secret1" {
		t.Fatal("password stored in clear text")
	}
	id, err := util.ParseJWT(reg.Token, "test-secret")
	if err != nil || id != reg.User.ID {
		t.Fatalf("token subject = %d, %v", id, err)
	}

	login, err := svc.Login(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.LastLogin == nil || !login.User.LastLogin.Equal(fixedNow) {
		t.Fatalf("last login = %v", login.User.LastLogin)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}

	profile, err := svc.Profile(ctx, reg.User.ID)
	if err != nil || profile.Username != "ada" {
		t.Fatalf("Profile = %+v, %v", profile, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(memstore.New(), nil)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@b.c", Password: "secret1"}},
		{"bad email", RegisterInput{Username: "abc", Email: "not-an-email", Password: "secret1"}},
		{"short password", RegisterInput{Username: "abc", Email: "a@b.c", Password: "12345"}},
		{"bad role", RegisterInput{Username: "abc", Email: "a@b.c", Password: "secret1", Role: "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assertValidation(t, err)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newService(memstore.New(), nil)
	in := RegisterInput{Username: "ada", Email: "ada@example.com", Password: "secret1"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("Register: %v", err)
	}

	in.Email = "other@example.com"
	_, err := svc.Register(ctx, in)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
}
