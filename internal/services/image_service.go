package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"imgstore/internal/imgur"
	"imgstore/internal/models"
	"imgstore/internal/repositories"
	"imgstore/pkg/rabbitmq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted upload, 10 MB.
const MaxImageSize = 10 << 20

var allowedContentTypes = map[string]bool{
	"image/jpg":  true,
	"image/jpeg": true,
	"image/png":  true,
	"image/apng": true,
	"image/gif":  true,
	"image/tiff": true,
}

// ImageHost stores image bytes remotely.
type ImageHost interface {
	Upload(ctx context.Context, filename string, content []byte) (*imgur.UploadedImage, error)
	Delete(ctx context.Context, deleteHash string) error
}

// EventPublisher announces completed uploads.
type EventPublisher interface {
	PublishImageUploaded(event rabbitmq.ImageUploadedEvent) error
}

// UploadRequest is a single file upload on behalf of Username.
type UploadRequest struct {
	Username    string
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService handles business logic related to images.
type ImageService struct {
	users     repositories.UserRepository
	images    repositories.ImageRepository
	host      ImageHost
	publisher EventPublisher
	logger    *zap.Logger
}

// NewImageService creates a new ImageService. publisher may be nil when
// events are disabled.
func NewImageService(
	users repositories.UserRepository,
	images repositories.ImageRepository,
	host ImageHost,
	publisher EventPublisher,
	logger *zap.Logger,
) *ImageService {
	return &ImageService{
		users:     users,
		images:    images,
		host:      host,
		publisher: publisher,
		logger:    logger,
	}
}

// Upload checks the file, pushes it to the host and records it for the user.
func (s *ImageService) Upload(ctx context.Context, req UploadRequest) (*models.Image, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(req.ContentType, ";", 2)[0]))
	if !allowedContentTypes[contentType] {
		return nil, ErrInvalidFileType
	}
	if len(req.Content) == 0 {
		return nil, ErrEmptyFile
	}
	if len(req.Content) > MaxImageSize {
		return nil, ErrFileTooLarge
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.host.Upload(ctx, req.Filename, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	image := &models.Image{
		ID:         uuid.New().String(),
		ImgurID:    uploaded.ID,
		Link:       uploaded.Link,
		DeleteHash: uploaded.DeleteHash,
		Filename:   req.Filename,
		UserID:     user.ID,
		CreatedAt:  time.Now(),
	}
	if err := s.images.Create(ctx, image); err != nil {
		// do not leave an orphan on the host
		if delErr := s.host.Delete(ctx, uploaded.DeleteHash); delErr != nil {
			s.logger.Error("failed to remove orphaned upload", zap.String("delete_hash", uploaded.DeleteHash), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	if s.publisher != nil {
		event := rabbitmq.ImageUploadedEvent{
			ImageID:    image.ID,
			UserID:     user.ID,
			Username:   user.Username,
			Link:       image.Link,
			Filename:   image.Filename,
			UploadedAt: image.CreatedAt,
		}
		if err := s.publisher.PublishImageUploaded(event); err != nil {
			s.logger.Warn("failed to publish image event", zap.String("image_id", image.ID), zap.Error(err))
		}
	}

	s.logger.Info("image uploaded", zap.String("image_id", image.ID), zap.String("user_id", user.ID))
	return image, nil
}

// ListForUser returns the user's images, or ErrNoImages when there are none.
func (s *ImageService) ListForUser(ctx context.Context, username string) ([]models.Image, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

// Delete removes one of the user's images from the host and from storage.
// Images owned by other users are reported as repositories.ErrImageNotFound.
func (s *ImageService) Delete(ctx context.Context, username, deleteHash string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	image, err := s.images.GetByDeleteHash(ctx, user.ID, deleteHash)
	if err != nil {
		return err
	}

	if err := s.host.Delete(ctx, image.DeleteHash); err != nil {
		return fmt.Errorf("failed to delete image from host: %w", err)
	}
	if err := s.images.Delete(ctx, image.ID); err != nil && !errors.Is(err, repositories.ErrImageNotFound) {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.logger.Info("image deleted", zap.String("image_id", image.ID), zap.String("user_id", user.ID))
	return nil
}
