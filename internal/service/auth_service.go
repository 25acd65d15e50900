package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/pkg/auth"
	"github.com/naodludzie/backend/pkg/config"
)

type AuthService interface {
	Register(ctx context.Context, email, name, password, role string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	AcceptTerms(ctx context.Context, userID int64) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
}

type authService struct {
	userRepo postgres.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo postgres.UserRepository, cfg *config.Config) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, email, name, password, role string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return nil, "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	if role != auth.RoleHost && role != auth.RoleGuest {
		return nil, "", fmt.Errorf("%w: role must be host or guest", domain.ErrValidation)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, "", fmt.Errorf("%w: email already registered", domain.ErrValidation)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, email, name, hash, role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", fmt.Errorf("%w: invalid email or password", domain.ErrAuthentication)
	}

	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, "", fmt.Errorf("%w: invalid email or password", domain.ErrAuthentication)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) issueToken(user *domain.User) (string, error) {
	token, err := auth.NewAccessToken(
		user.ID, user.Email, user.Role, s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *authService) AcceptTerms(ctx context.Context, userID int64) error {
	return s.userRepo.AcceptTerms(ctx, userID)
}

func (s *authService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}
	return user, nil
}
