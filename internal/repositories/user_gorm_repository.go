package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imgstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Save inserts or updates the user. Unique index collisions are reported as
// ErrConstraintViolation.
func (r *GORMUserRepository) Save(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return r.create(ctx, user)
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"username":             user.Username,
		"password_hash":        user.PasswordHash,
		"email":                user.Email,
		"external_provider_id": user.ExternalProviderID,
		"firstname":            user.Firstname,
		"lastname":             user.Lastname,
		"location":             user.Location,
		"updated_at":           time.Now(),
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("failed to update user %s: %w", user.ID, ErrConstraintViolation)
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", user.ID, ErrUserNotFound)
	}
	return nil
}

func (r *GORMUserRepository) create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	if err := r.db.WithContext(ctx).Omit("Images").Create(user).Error; err != nil {
		user.ID = ""
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user %s: %w", user.Username, ErrConstraintViolation)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByExternalID retrieves a user by the id assigned by the external provider.
func (r *GORMUserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.first(ctx, "external_provider_id = ?", externalID)
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user (%s %s): %w", query, arg, err)
	}
	return &user, nil
}

// Delete removes the user and its images in one transaction.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Image{}).Error; err != nil {
			return fmt.Errorf("failed to delete images of user %s: %w", id, err)
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
		}
		return nil
	})
}
