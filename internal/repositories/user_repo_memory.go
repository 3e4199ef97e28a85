package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imgstore/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository with
// the same uniqueness rules as the database schema.
type MemoryUserRepository struct {
	users  map[string]models.User
	images *MemoryImageRepository
	mu     sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
// When images is non-nil, deleting a user also deletes its images there.
func NewMemoryUserRepository(images *MemoryImageRepository) *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[string]models.User),
		images: images,
	}
}

func (r *MemoryUserRepository) conflicts(user *models.User) bool {
	for id, existing := range r.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return true
		}
		if user.IsExternal() && existing.IsExternal() && *existing.ExternalProviderID == *user.ExternalProviderID {
			return true
		}
	}
	return false
}

// Save inserts or updates a user.
func (r *MemoryUserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if user.ID == "" {
		if r.conflicts(user) {
			return fmt.Errorf("failed to create user %s: %w", user.Username, ErrConstraintViolation)
		}
		user.ID = uuid.New().String()
		user.CreatedAt = now
		user.UpdatedAt = now
		r.users[user.ID] = copyUser(user)
		return nil
	}

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s: %w", user.ID, ErrUserNotFound)
	}
	if r.conflicts(user) {
		return fmt.Errorf("failed to update user %s: %w", user.ID, ErrConstraintViolation)
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now
	r.users[user.ID] = copyUser(user)
	return nil
}

// GetByUsername returns a user by username.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

// GetByExternalID returns a user by external provider id.
func (r *MemoryUserRepository) GetByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.IsExternal() && *u.ExternalProviderID == externalID })
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *MemoryUserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			found := copyUser(&u)
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

// Delete removes a user by its ID.
func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.users[id]
	delete(r.users, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	if r.images != nil {
		r.images.deleteByUser(id)
	}
	return nil
}

func copyUser(u *models.User) models.User {
	c := *u
	c.Images = nil
	if u.ExternalProviderID != nil {
		id := *u.ExternalProviderID
		c.ExternalProviderID = &id
	}
	return c
}
