package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imgstore/internal/app"
	"imgstore/internal/config"
	"imgstore/internal/database"
	"imgstore/internal/imgur"
	"imgstore/internal/oauth"
	"imgstore/internal/repositories"
	"imgstore/internal/security"
	"imgstore/internal/services"
	"imgstore/pkg/logger"
	"imgstore/pkg/rabbitmq"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// --- Configuration ---
	// a missing .env file is fine, the environment wins either way
	_ = godotenv.Load()
	cfg, err := config.Load(viper.New())
	if err != nil {
		// the logger is not configured yet
		fallback, _ := zap.NewProduction()
		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			fallback.Fatal("invalid configuration", zap.String("key", cerr.Key), zap.String("reason", cerr.Reason))
		}
		fallback.Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	// --- Initialize Repositories ---
	var (
		userRepo  repositories.UserRepository
		imageRepo repositories.ImageRepository
	)
	if cfg.DatabaseDriver == "memory" {
		images := repositories.NewMemoryImageRepository()
		userRepo = repositories.NewMemoryUserRepository(images)
		imageRepo = images
		log.Warn("using in-memory storage, data is lost on restart")
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			log.Fatal("failed to open database", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
		}
		defer database.Close(db) //nolint:errcheck
		userRepo = repositories.NewGORMUserRepository(db)
		imageRepo = repositories.NewGORMImageRepository(db)
	}

	// --- Security ---
	tokens, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration, cfg.JWTIssuer)
	if err != nil {
		log.Fatal("failed to create token issuer", zap.Error(err))
	}

	// --- External login providers ---
	providers := oauth.NewRegistry()
	if cfg.GitHubEnabled() {
		github, err := oauth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL)
		if err != nil {
			log.Fatal("failed to configure github login", zap.Error(err))
		}
		providers = oauth.NewRegistry(github)
	} else {
		log.Info("github login disabled, GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET not set")
	}

	// --- Initialize RabbitMQ Client ---
	var publisher services.EventPublisher
	if cfg.EventsEnabled {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log.Named("rabbitmq"))
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close() //nolint:errcheck
		publisher = mqClient

		if err := mqClient.ConsumeImageEvents(rabbitmq.LogImageEvent(log.Named("events"))); err != nil {
			log.Error("failed to start RabbitMQ consumer", zap.Error(err))
		}
	}

	if cfg.ImgurClientID == "" {
		log.Warn("IMGUR_CLIENT_ID not set, image uploads will fail")
	}

	// --- Initialize Fiber App ---
	application, err := app.New(app.Deps{
		Config:    cfg,
		Logger:    log,
		Users:     userRepo,
		Images:    imageRepo,
		Hasher:    security.NewBcryptHasher(bcrypt.DefaultCost),
		Tokens:    tokens,
		ImageHost: imgur.NewClient(cfg.ImgurBaseURL, cfg.ImgurClientID, 30*time.Second),
		Publisher: publisher,
		Providers: providers,
		AccessLog: true,
	})
	if err != nil {
		log.Fatal("failed to build application", zap.Error(err))
	}

	// --- Start HTTP Server ---
	log.Info("starting server", zap.String("addr", cfg.AppPort), zap.Strings("oauth_providers", providers.Names()))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := application.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")

	if err := application.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during Fiber shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}
