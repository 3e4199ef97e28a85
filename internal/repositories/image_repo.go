package repositories

import (
	"context"
	"errors"

	"imgstore/internal/models"
)

// ErrImageNotFound is returned when no image matches a lookup.
var ErrImageNotFound = errors.New("image not found")

// ImageRepository defines the interface for image data access.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	ListByUser(ctx context.Context, userID string) ([]models.Image, error)
	GetByDeleteHash(ctx context.Context, userID, deleteHash string) (*models.Image, error)
	Delete(ctx context.Context, id string) error
}
