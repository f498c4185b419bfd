package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/lifecycle"
	"github.com/leadforte/leadforte_portal/internal/middleware"
)

// RegisterLifecycleRoutes wires policy, claim and admin endpoints onto a
// session-protected router.
func RegisterLifecycleRoutes(r fiber.Router, h *lifecycle.Handler) {
	clientOnly := middleware.RequireRole(lifecycle.RoleClient)

	r.Post("/policies", clientOnly, h.SubmitPolicy)
	r.Get("/policies", h.ListPolicies)
	r.Get("/policies/:policyId", h.GetPolicy)

	r.Post("/claims", clientOnly, h.FileClaim)
	r.Get("/claims", h.ListClaims)
	r.Get("/claims/:claimId", h.GetClaim)

	admin := r.Group("/admin", middleware.RequireRole(lifecycle.RoleAdmin))
	admin.Get("/policies", h.ListAllPolicies)
	admin.Patch("/policies/:policyId", h.TransitionPolicy)
	admin.Get("/claims", h.ListAllClaims)
	admin.Patch("/claims/:claimId", h.TransitionClaim)
	admin.Get("/overview", h.Overview)
}
