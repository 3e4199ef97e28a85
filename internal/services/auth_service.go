package services

import (
	"context"
	"errors"
	"fmt"

	"imgstore/internal/models"
	"imgstore/internal/repositories"
	"imgstore/internal/security"
	"imgstore/internal/validation"

	"go.uber.org/zap"
)

// RegisterRequest is the payload of a local registration.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=5,max=50"`
	Password  string `json:"password" validate:"required,min=6,maxbytes=72,password"`
	Email     string `json:"email" validate:"required,email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Location  string `json:"location"`
}

// TokenIssuer issues tokens for authenticated subjects.
type TokenIssuer interface {
	Issue(subject string, roles []string) (string, error)
}

// AuthService handles local registration and login.
type AuthService struct {
	users          repositories.UserRepository
	hasher         security.PasswordHasher
	tokens         TokenIssuer
	validator      *validation.Validator
	logger         *zap.Logger
	requireProfile bool
	// dummyHash is compared against when the username does not exist, so an
	// absent user costs the same bcrypt work as a wrong password.
	dummyHash string
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithRequiredProfile makes firstname and lastname mandatory on registration.
func WithRequiredProfile(required bool) AuthOption {
	return func(s *AuthService) {
		s.requireProfile = required
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repositories.UserRepository,
	hasher security.PasswordHasher,
	tokens TokenIssuer,
	validator *validation.Validator,
	logger *zap.Logger,
	opts ...AuthOption,
) (*AuthService, error) {
	dummy, err := hasher.Hash("dummy-Passw0rd")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	s := &AuthService{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		validator:      validator,
		logger:         logger,
		requireProfile: true,
		dummyHash:      dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates req, hashes the password and stores a new local user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	fields := s.validator.Struct(req)
	if s.requireProfile {
		if fe := s.validator.Field("firstname", req.Firstname, "required"); fe != nil {
			fields = append(fields, *fe)
		}
		if fe := s.validator.Field("lastname", req.Lastname, "required"); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	existing, err := s.users.GetByUsername(ctx, req.Username)
	switch {
	case err == nil && existing != nil:
		return nil, ErrDuplicateUsername
	case err != nil && !errors.Is(err, repositories.ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Location:     req.Location,
	}
	if err := s.users.Save(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same name
		if errors.Is(err, repositories.ErrConstraintViolation) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login verifies the credentials and returns a signed token with the USER role.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return "", fmt.Errorf("failed to look up user: %w", err)
		}
		s.hasher.Verify(password, s.dummyHash)
		s.logger.Debug("login rejected", zap.String("username", username))
		return "", ErrAuthenticationFailed
	}

	hash := user.PasswordHash
	if hash == "" {
		// external users have no password hash and cannot log in locally
		s.hasher.Verify(password, s.dummyHash)
		s.logger.Debug("login rejected for external user", zap.String("username", username))
		return "", ErrAuthenticationFailed
	}
	if !s.hasher.Verify(password, hash) {
		s.logger.Debug("login rejected", zap.String("username", username))
		return "", ErrAuthenticationFailed
	}

	token, err := s.tokens.Issue(user.Username, []string{security.RoleUser})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}
