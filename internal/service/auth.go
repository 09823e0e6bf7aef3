package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"authapi/internal/models"
	"authapi/internal/password"
	"authapi/internal/repository"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// timingDigest is a valid bcrypt digest used to equalize signin timing when
// the email is unknown. Without it, a missing user would skip the hash
// comparison and leak account existence through response latency.
const timingDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type SignupParams struct {
	Name     string
	Email    string // already normalized: trimmed, lower-case
	Password string
	Role     string
}

type AuthService interface {
	Signup(ctx context.Context, params SignupParams) (*models.User, error)
	Signin(ctx context.Context, email, plaintext string) (*models.User, error)
}

type authService struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewAuthService(repo repository.UserRepository, logger *zap.Logger) AuthService {
	return &authService{repo: repo, logger: logger}
}

// Signup hashes the password and inserts the record. The lookup is only a
// pre-check; a concurrent signup with the same email loses at the unique
// constraint and is reported as the same conflict.
func (s *authService) Signup(ctx context.Context, params SignupParams) (*models.User, error) {
	existing, err := s.repo.GetUserByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("Failed to look up user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	digest, err := password.Hash(params.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    params.Email,
		Name:     params.Name,
		Password: digest,
		Role:     params.Role,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("New user created", zap.Int64("id", user.ID))
	return user, nil
}

// Signin verifies the credentials. Unknown email and wrong password both
// collapse to ErrInvalidCredentials so the caller cannot distinguish them.
func (s *authService) Signin(ctx context.Context, email, plaintext string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn the same hashing work as the known-user path.
			_, _ = password.Verify(plaintext, timingDigest)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to look up user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	ok, err := password.Verify(plaintext, user.Password)
	if err != nil {
		s.logger.Error("Failed to verify password", zap.Error(err))
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User signed in", zap.Int64("id", user.ID))
	return user, nil
}
