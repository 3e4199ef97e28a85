package services

import (
	"context"
	"errors"
	"fmt"

	"imgstore/internal/models"
	"imgstore/internal/oauth"
	"imgstore/internal/repositories"
	"imgstore/internal/security"

	"go.uber.org/zap"
)

// CallbackResult is the outcome of a completed external login.
type CallbackResult struct {
	User    *models.User
	Token   string
	Created bool
}

// OAuthService links external identities to local users and issues the same
// stateless token as the local login.
type OAuthService struct {
	users  repositories.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
}

// NewOAuthService creates a new OAuthService.
func NewOAuthService(users repositories.UserRepository, tokens TokenIssuer, logger *zap.Logger) *OAuthService {
	return &OAuthService{users: users, tokens: tokens, logger: logger}
}

// HandleCallback finds the user bound to profile's external id, creating it on
// first login, and returns a token for it. An existing user is left unchanged.
func (s *OAuthService) HandleCallback(ctx context.Context, profile oauth.Profile) (*CallbackResult, error) {
	if profile.ExternalID == "" || profile.Login == "" {
		return nil, errors.New("external profile is missing id or login")
	}

	created := false
	user, err := s.users.GetByExternalID(ctx, profile.ExternalID)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up external user: %w", err)
		}
		user, created, err = s.create(ctx, profile)
		if err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Issue(user.Username, []string{security.RoleUser})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("external login",
		zap.String("provider", profile.Provider),
		zap.String("user_id", user.ID),
		zap.Bool("created", created),
	)
	return &CallbackResult{User: user, Token: token, Created: created}, nil
}

// create inserts the user, falling back to "<login>-<externalID>" when the
// login is taken by an unrelated account. A concurrent callback for the same
// identity may insert first; its record is returned instead.
func (s *OAuthService) create(ctx context.Context, profile oauth.Profile) (*models.User, bool, error) {
	externalID := profile.ExternalID
	email := profile.Email
	if email == "" {
		email = placeholderEmail(profile)
	}

	candidates := []string{profile.Login, profile.Login + "-" + externalID}
	for _, username := range candidates {
		user := &models.User{
			Username:           username,
			Email:              email,
			ExternalProviderID: &externalID,
			Location:           profile.Location,
		}
		err := s.users.Save(ctx, user)
		if err == nil {
			return user, true, nil
		}
		if !errors.Is(err, repositories.ErrConstraintViolation) {
			return nil, false, fmt.Errorf("failed to create external user: %w", err)
		}

		winner, lookupErr := s.users.GetByExternalID(ctx, externalID)
		if lookupErr == nil {
			return winner, false, nil
		}
		if !errors.Is(lookupErr, repositories.ErrUserNotFound) {
			return nil, false, fmt.Errorf("failed to look up external user: %w", lookupErr)
		}
		// the username is free, so the violation was on the external id
		if _, err := s.users.GetByUsername(ctx, username); errors.Is(err, repositories.ErrUserNotFound) {
			return nil, false, ErrDuplicateExternalID
		}
		s.logger.Warn("external username taken", zap.String("username", username))
	}
	return nil, false, ErrDuplicateUsername
}

func placeholderEmail(profile oauth.Profile) string {
	provider := profile.Provider
	if provider == "" {
		provider = oauth.GitHubName
	}
	return profile.Login + "@" + provider + ".com"
}
