package handlers

import "github.com/gofiber/fiber/v2"

// HomeHandler serves the public landing routes.
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// RegisterRoutes registers the landing and health routes.
func (h *HomeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
	// external logins land here with the token in the fragment
	router.Get("/register", h.HandleRegisterPage)
	router.Get("/health", h.HandleHealth)
}

// HandleHome greets visitors.
func (h *HomeHandler) HandleHome(c *fiber.Ctx) error {
	return c.SendString("Welcome to Img Store")
}

// HandleRegisterPage is the default OAuth success redirect target.
func (h *HomeHandler) HandleRegisterPage(c *fiber.Ctx) error {
	return c.SendString("Register for Img Store")
}

// HandleHealth reports liveness.
func (h *HomeHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
