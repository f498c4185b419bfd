package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/advice"
)

// RegisterAdviceRoutes wires the public advice chat endpoint.
func RegisterAdviceRoutes(r fiber.Router, h *advice.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/advice", rateLimiter, h.Ask)
		return
	}
	r.Post("/advice", h.Ask)
}
