package service

import (
	"context"
	"errors"
	"testing"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/pkg/auth"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), testConfig())

	user, token, err := svc.Register(context.Background(), "Anna@Example.com", "Anna", "correct-horse", auth.RoleHost)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "anna@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if token == "" {
		t.Error("no access token issued")
	}

	claims, err := auth.Parse(token, testConfig().Auth.JWTSecret)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Role != auth.RoleHost || claims.Sub != user.ID {
		t.Errorf("claims = %+v", claims)
	}

	if _, _, err := svc.Login(context.Background(), "anna@example.com", "correct-horse"); err != nil {
		t.Errorf("Login with right password: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "anna@example.com", "wrong"); !errors.Is(err, domain.ErrAuthentication) {
		t.Errorf("wrong password: err = %v, want ErrAuthentication", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "x"); !errors.Is(err, domain.ErrAuthentication) {
		t.Errorf("unknown user: err = %v, want ErrAuthentication", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(&domain.User{ID: 1, Email: "taken@example.com"}), testConfig())

	cases := []struct {
		name                        string
		email, user, password, role string
	}{
		{"bad email", "not-an-email", "Anna", "longenough", auth.RoleGuest},
		{"short password", "a@example.com", "Anna", "short", auth.RoleGuest},
		{"empty name", "a@example.com", " ", "longenough", auth.RoleGuest},
		{"admin role forbidden", "a@example.com", "Anna", "longenough", auth.RoleAdmin},
		{"duplicate email", "taken@example.com", "Anna", "longenough", auth.RoleGuest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, _, err := svc.Register(context.Background(), c.email, c.user, c.password, c.role); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}
