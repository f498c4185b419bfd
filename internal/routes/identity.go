package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/identity"
)

// RegisterIdentityRoutes wires signup, which provisions the identity and its profile.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/identity/register", h.Register)
}
