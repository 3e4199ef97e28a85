package app

import (
	"errors"
	"strings"

	"imgstore/internal/config"
	"imgstore/internal/handlers"
	"imgstore/internal/middleware"
	"imgstore/internal/oauth"
	"imgstore/internal/repositories"
	"imgstore/internal/security"
	"imgstore/internal/services"
	"imgstore/internal/validation"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP application is assembled from.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Users     repositories.UserRepository
	Images    repositories.ImageRepository
	Hasher    security.PasswordHasher
	Tokens    *security.TokenIssuer
	ImageHost services.ImageHost
	// Publisher may be nil when events are disabled.
	Publisher services.EventPublisher
	// Providers may be empty when no external login is configured.
	Providers *oauth.Registry
	// AccessLog enables the per-request access log.
	AccessLog bool
}

// New builds the services and handlers and registers every route.
func New(d Deps) (*fiber.App, error) {
	if d.Config == nil || d.Users == nil || d.Images == nil || d.Hasher == nil || d.Tokens == nil || d.ImageHost == nil {
		return nil, errors.New("app: missing required dependency")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	providers := d.Providers
	if providers == nil {
		providers = oauth.NewRegistry()
	}

	v, err := validation.New()
	if err != nil {
		return nil, err
	}

	authService, err := services.NewAuthService(d.Users, d.Hasher, d.Tokens, v, logger.Named("auth"),
		services.WithRequiredProfile(d.Config.RegistrationRequireProfile))
	if err != nil {
		return nil, err
	}
	oauthService := services.NewOAuthService(d.Users, d.Tokens, logger.Named("oauth"))
	imageService := services.NewImageService(d.Users, d.Images, d.ImageHost, d.Publisher, logger.Named("images"))

	homeHandler := handlers.NewHomeHandler()
	authHandler := handlers.NewAuthHandler(authService, logger.Named("auth"))
	oauthHandler := handlers.NewOAuthHandler(providers, oauthService, d.Config.OAuthSuccessRedirect,
		strings.HasPrefix(d.Config.GitHubRedirectURL, "https://"), logger.Named("oauth"))
	imageHandler := handlers.NewImageHandler(imageService, logger.Named("images"))

	app := fiber.New(fiber.Config{
		AppName:               "imgstore",
		DisableStartupMessage: true,
		// multipart overhead on top of the largest accepted image
		BodyLimit: services.MaxImageSize + 1<<20,
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(fiberlogger.New())
	}

	homeHandler.RegisterRoutes(app)
	oauthHandler.RegisterRoutes(app)

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(d.Tokens, logger.Named("auth")))
	imageHandler.RegisterRoutes(protected)

	return app, nil
}
