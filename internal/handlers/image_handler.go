package handlers

import (
	"errors"
	"io"

	"imgstore/internal/middleware"
	"imgstore/internal/repositories"
	"imgstore/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ImageHandler handles HTTP requests for images. Its routes must sit behind
// middleware.AuthRequired.
type ImageHandler struct {
	service *services.ImageService
	logger  *zap.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(service *services.ImageService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the image routes with the Fiber app.
func (h *ImageHandler) RegisterRoutes(router fiber.Router) {
	imageRoutes := router.Group("/images")
	imageRoutes.Post("/upload", h.HandleUpload)
	imageRoutes.Get("/all", h.HandleList)
	imageRoutes.Delete("/delete/:deleteHash", h.HandleDelete)
}

// HandleUpload stores the multipart "file" field for the current user.
func (h *ImageHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A file is required in the 'file' form field",
		})
	}
	if fileHeader.Size > services.MaxImageSize {
		return fileTooLarge(c)
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not read uploaded file",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, services.MaxImageSize+1))
	if err != nil {
		h.logger.Error("failed to read uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not read uploaded file",
		})
	}

	image, err := h.service.Upload(c.UserContext(), services.UploadRequest{
		Username:    middleware.Username(c),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidFileType), errors.Is(err, services.ErrEmptyFile):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid file type. Only image files (jpg, jpeg, png, apng, gif, tiff) are allowed",
			})
		case errors.Is(err, services.ErrFileTooLarge):
			return fileTooLarge(c)
		case errors.Is(err, repositories.ErrUserNotFound):
			return userNotFound(c)
		default:
			h.logger.Error("image upload failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Image upload failed",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message":    "Image uploaded successfully",
		"imageLink":  image.Link,
		"deleteHash": image.DeleteHash,
	})
}

// HandleList returns the current user's images.
func (h *ImageHandler) HandleList(c *fiber.Ctx) error {
	username := middleware.Username(c)
	images, err := h.service.ListForUser(c.UserContext(), username)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoImages):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "No image is associated with your account",
			})
		case errors.Is(err, repositories.ErrUserNotFound):
			return userNotFound(c)
		default:
			h.logger.Error("listing images failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not retrieve images",
			})
		}
	}

	return c.JSON(fiber.Map{
		"user":   username,
		"images": images,
	})
}

// HandleDelete removes one of the current user's images.
func (h *ImageHandler) HandleDelete(c *fiber.Ctx) error {
	err := h.service.Delete(c.UserContext(), middleware.Username(c), c.Params("deleteHash"))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrImageNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Image not found or not associated with the user",
			})
		case errors.Is(err, repositories.ErrUserNotFound):
			return userNotFound(c)
		default:
			h.logger.Error("image delete failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Image delete failed",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Image deleted successfully",
	})
}

func fileTooLarge(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "File size exceeds the maximum limit of 10 MB",
	})
}

func userNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "User not found",
	})
}
