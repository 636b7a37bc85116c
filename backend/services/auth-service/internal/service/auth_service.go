package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fuelflow/backend/services/auth-service/internal/models"
	"fuelflow/backend/services/auth-service/internal/password"
	"fuelflow/backend/services/auth-service/internal/repository"
)

const minPasswordLength = 8

var (
	// ErrEmailInUse is returned when attempting to register duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidRole is returned for unknown roles and for self-service superadmin signups.
	ErrInvalidRole = errors.New("auth: invalid role")
	// ErrInvalidInput marks malformed signup data.
	ErrInvalidInput = errors.New("auth: invalid input")
)

// UserRepository defines storage contract used by the service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService contains registration/login logic.
type AuthService struct {
	repo      UserRepository
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(repo UserRepository, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Signup registers an owner or employee. An empty role means employee.
func (s *AuthService) Signup(ctx context.Context, email, password, rawRole string) (*models.User, error) {
	role := models.RoleEmployee
	if strings.TrimSpace(rawRole) != "" {
		parsed, ok := models.ParseRole(rawRole)
		if !ok || parsed == models.RoleSuperadmin {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, rawRole)
		}
		role = parsed
	}
	user, err := s.create(ctx, email, password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// EnsureSuperadmin creates the bootstrap superadmin unless the email is already registered.
func (s *AuthService) EnsureSuperadmin(ctx context.Context, email, password string) error {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	user, err := s.create(ctx, email, password, models.RoleSuperadmin)
	if errors.Is(err, ErrEmailInUse) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap superadmin created", zap.Int64("user_id", user.ID))
	return nil
}

func (s *AuthService) create(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return token, user, nil
}
