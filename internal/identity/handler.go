package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/lifecycle"
	"github.com/leadforte/leadforte_portal/internal/profile"
)

// Handler exposes identity endpoints.
type Handler struct {
	service          *Service
	profiles         *profile.Service
	allowAdminSignup bool
	logger           *slog.Logger
}

// NewHandler constructs an identity HTTP handler. Signup requests for the
// admin role are refused unless allowAdminSignup is set.
func NewHandler(service *Service, profiles *profile.Service, allowAdminSignup bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, profiles: profiles, allowAdminSignup: allowAdminSignup, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// Register creates the identity and its portal profile.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.FullName) == "" {
		return fiber.NewError(http.StatusBadRequest, "full_name is required")
	}
	role := lifecycle.RoleClient
	if req.Role != "" {
		role = lifecycle.Role(strings.ToLower(req.Role))
		if !role.Valid() {
			return fiber.NewError(http.StatusBadRequest, "unknown role")
		}
	}
	if role == lifecycle.RoleAdmin && !h.allowAdminSignup {
		return fiber.NewError(http.StatusForbidden, "admin signup is disabled")
	}

	user, err := h.service.Register(c.UserContext(), Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidEmail):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	p, err := h.profiles.Create(c.UserContext(), profile.Profile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: req.FullName,
		Role:     role,
		Phone:    req.Phone,
	})
	if err != nil {
		h.logger.Error("profile creation failed after signup",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		// a failed signup leaves no identity behind
		if rbErr := h.service.Remove(c.UserContext(), user.ID); rbErr != nil {
			h.logger.Error("rolling back identity failed",
				slog.String("user_id", user.ID),
				slog.Any("error", rbErr),
			)
		}
		return fiber.NewError(http.StatusInternalServerError, "could not create profile")
	}
	return c.Status(http.StatusCreated).JSON(profile.ToResponse(p))
}
