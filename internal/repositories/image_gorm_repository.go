package repositories

import (
	"context"
	"errors"
	"fmt"

	"imgstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMImageRepository is a GORM implementation of ImageRepository.
type GORMImageRepository struct {
	db *gorm.DB
}

// NewGORMImageRepository creates a new instance of GORMImageRepository.
func NewGORMImageRepository(db *gorm.DB) *GORMImageRepository {
	return &GORMImageRepository{
		db: db,
	}
}

// Create stores a new image record.
func (r *GORMImageRepository) Create(ctx context.Context, image *models.Image) error {
	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

// ListByUser returns the images owned by a user, oldest first.
func (r *GORMImageRepository) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	var images []models.Image
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images of user %s: %w", userID, err)
	}
	return images, nil
}

// GetByDeleteHash returns the image with the given delete hash if the user owns it.
func (r *GORMImageRepository) GetByDeleteHash(ctx context.Context, userID, deleteHash string) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).First(&image, "delete_hash = ? AND user_id = ?", deleteHash, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image by delete hash %s: %w", deleteHash, err)
	}
	return &image, nil
}

// Delete deletes an image by its ID from the database.
func (r *GORMImageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Image{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("image with ID %s: %w", id, ErrImageNotFound)
	}
	return nil
}
