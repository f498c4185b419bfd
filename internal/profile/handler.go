package profile

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/lifecycle"
)

// Handler exposes the caller's profile.
type Handler struct {
	service *Service
}

// NewHandler constructs a profile HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Response is the JSON rendering of a profile.
type Response struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse renders p for API clients.
func ToResponse(p Profile) Response {
	return Response{
		UserID:    p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
	}
}

// Me returns the authenticated caller's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	session, ok := lifecycle.SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	p, err := h.service.Get(c.UserContext(), session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(ToResponse(p))
}
