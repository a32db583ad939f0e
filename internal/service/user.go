// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/repository"
)

// User service errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrWeakPassword       = auth.ErrPasswordTooShort
)

const maxEmailLength = 254

// UserService handles account business logic.
type UserService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	issuer  *auth.TokenIssuer
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, cacheClient *cache.Cache, issuer *auth.TokenIssuer, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		repo:    repo,
		cache:   cacheClient,
		issuer:  issuer,
		metrics: recorder,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Email    string
	Password string
}

// Register validates input, hashes the password and creates the account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:             ulid.Make().String(),
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
		Roles:          []string{model.RoleUser},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()

	return user, nil
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// Login verifies credentials and issues an access token.
// The same error is returned for an unknown email and a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a hash comparison anyway to keep timing uniform.
			auth.VerifyPassword(password, "$2a$12$C6UzMDM.H6dfI/f/IKcEeO7RrlqmTyk1wC6zW0eJ2cqGnJ1akvIo6")
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.VerifyPassword(password, user.HashedPassword) {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLoginSuccess()

	return &TokenPair{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.issuer.TTL().Seconds()),
	}, nil
}

// Logout revokes the presented token until it would have expired.
func (s *UserService) Logout(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	return s.cache.RevokeToken(ctx, tokenID, s.issuer.TTL())
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users. Admin operation.
func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]*model.User, error) {
	users, err := s.repo.ListUsers(ctx, skip, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserInput defines a partial account update.
// Nil fields are left unchanged.
type UpdateUserInput struct {
	Email    *string
	Password *string
	IsActive *bool
}

// UpdateUser applies a partial update and invalidates the cached auth context.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}

	if input.Password != nil {
		if err := auth.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = hash
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// Stale role/active flags must not outlive the update.
	_ = s.cache.DeleteAuthContext(ctx, user.ID)

	return user, nil
}

// normalizeEmail lowercases, trims and validates an email address.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" || len(trimmed) > maxEmailLength {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return trimmed, nil
}

// normalizeLimit clamps list limits to a sane window.
func normalizeLimit(limit int) int {
	const defaultLimit = 100
	const maxLimit = 500

	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
