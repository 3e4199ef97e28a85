package repositories

import (
	"context"
	"errors"
	"strings"

	"imgstore/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrConstraintViolation is returned when a save collides with a unique
	// username or external provider id.
	ErrConstraintViolation = errors.New("unique constraint violation")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Save inserts the user when ID is empty and updates it otherwise.
	Save(ctx context.Context, user *models.User) error
	// Delete removes the user together with the images it owns.
	Delete(ctx context.Context, id string) error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
