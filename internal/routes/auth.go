package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/auth"
)

// RegisterAuthRoutes wires the public authentication endpoints. Logout is
// registered with the session-protected routes.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/refresh", h.Refresh)
}
