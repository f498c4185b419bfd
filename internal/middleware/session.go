package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/auth"
	"github.com/leadforte/leadforte_portal/internal/identity"
	"github.com/leadforte/leadforte_portal/internal/lifecycle"
	"github.com/leadforte/leadforte_portal/internal/profile"
)

// TokenVerifier resolves a bearer token to the identity it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (identity.User, error)
}

// ProfileLoader loads the stored profile for an identity.
type ProfileLoader interface {
	Get(ctx context.Context, id string) (profile.Profile, error)
}

// Session validates the bearer token, checks its version and stores the
// caller's lifecycle.Session built from the stored profile.
func Session(tokens TokenVerifier, profiles ProfileLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		user, err := tokens.Verify(c.UserContext(), tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrTokenRevoked) {
				return fiber.NewError(http.StatusUnauthorized, "token invalidated")
			}
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		p, err := profiles.Get(c.UserContext(), user.ID)
		if err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				return fiber.NewError(http.StatusForbidden, "profile not found")
			}
			return fiber.NewError(http.StatusInternalServerError, "profile lookup failed")
		}

		c.Locals(lifecycle.SessionLocalsKey, p.Session())
		return c.Next()
	}
}

// RequireRole rejects sessions that do not hold one of the given roles.
func RequireRole(roles ...lifecycle.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := lifecycle.SessionFrom(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		for _, r := range roles {
			if session.Role == r {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "insufficient role")
	}
}
