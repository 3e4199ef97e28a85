package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"time"

	"imgstore/internal/oauth"
	"imgstore/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	stateCookieName = "__oauth_state"
	stateTTL        = 5 * time.Minute
)

// OAuthHandler drives the browser side of external logins.
type OAuthHandler struct {
	providers       *oauth.Registry
	service         *services.OAuthService
	successRedirect string
	secureCookie    bool
	logger          *zap.Logger
}

// NewOAuthHandler creates a new OAuthHandler. After a successful login the
// browser is sent to successRedirect with the token in the URL fragment.
func NewOAuthHandler(providers *oauth.Registry, service *services.OAuthService, successRedirect string, secureCookie bool, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		providers:       providers,
		service:         service,
		successRedirect: successRedirect,
		secureCookie:    secureCookie,
		logger:          logger,
	}
}

// RegisterRoutes registers the authorization and callback routes.
func (h *OAuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/oauth2/authorization/:provider", h.HandleAuthorize)
	router.Get("/login/oauth2/code/:provider", h.HandleCallback)
}

// HandleAuthorize sets a state cookie and redirects to the provider.
func (h *OAuthHandler) HandleAuthorize(c *fiber.Ctx) error {
	provider, err := h.providers.Get(c.Params("provider"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Unknown login provider",
		})
	}

	state, err := newState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not start login",
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// HandleCallback validates state, exchanges the code and redirects to the
// success page with a token.
func (h *OAuthHandler) HandleCallback(c *fiber.Ctx) error {
	provider, err := h.providers.Get(c.Params("provider"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Unknown login provider",
		})
	}

	expected := c.Cookies(stateCookieName)
	c.ClearCookie(stateCookieName)
	state := c.Query("state")
	if state == "" || expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid OAuth state",
		})
	}

	if reason := c.Query("error"); reason != "" {
		h.logger.Warn("provider denied login", zap.String("provider", provider.Name()), zap.String("reason", reason))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "External authentication failed",
		})
	}
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing authorization code",
		})
	}

	profile, err := provider.Exchange(c.UserContext(), code)
	if err != nil {
		h.logger.Warn("code exchange failed", zap.String("provider", provider.Name()), zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "External authentication failed",
		})
	}

	result, err := h.service.HandleCallback(c.UserContext(), *profile)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateUsername), errors.Is(err, services.ErrDuplicateExternalID):
			h.logger.Warn("external login conflict", zap.String("login", profile.Login), zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Account could not be linked",
			})
		default:
			h.logger.Error("unexpected error during external login", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal server error occurred during login",
			})
		}
	}

	return c.Redirect(h.successRedirect+"#token="+result.Token, fiber.StatusFound)
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
