package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"imgstore/internal/models"

	"github.com/google/uuid"
)

// MemoryImageRepository is an in-memory implementation of ImageRepository.
type MemoryImageRepository struct {
	images map[string]models.Image
	mu     sync.RWMutex
}

// NewMemoryImageRepository creates a new instance of MemoryImageRepository.
func NewMemoryImageRepository() *MemoryImageRepository {
	return &MemoryImageRepository{
		images: make(map[string]models.Image),
	}
}

// Create adds a new image.
func (r *MemoryImageRepository) Create(_ context.Context, image *models.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	image.CreatedAt = time.Now()
	r.images[image.ID] = *image
	return nil
}

// ListByUser returns the images owned by a user, oldest first.
func (r *MemoryImageRepository) ListByUser(_ context.Context, userID string) ([]models.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	images := make([]models.Image, 0)
	for _, img := range r.images {
		if img.UserID == userID {
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].CreatedAt.Before(images[j].CreatedAt) })
	return images, nil
}

// GetByDeleteHash returns the image with the given delete hash if the user owns it.
func (r *MemoryImageRepository) GetByDeleteHash(_ context.Context, userID, deleteHash string) (*models.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, img := range r.images {
		if img.DeleteHash == deleteHash && img.UserID == userID {
			found := img
			return &found, nil
		}
	}
	return nil, ErrImageNotFound
}

// Delete removes an image by its ID.
func (r *MemoryImageRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[id]; !ok {
		return fmt.Errorf("image with ID %s: %w", id, ErrImageNotFound)
	}
	delete(r.images, id)
	return nil
}

func (r *MemoryImageRepository) deleteByUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, img := range r.images {
		if img.UserID == userID {
			delete(r.images, id)
		}
	}
}
