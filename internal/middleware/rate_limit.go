package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// KeyFunc extracts the rate limit subject from a request.
type KeyFunc func(c *fiber.Ctx) string

// ByIP keys requests by client IP.
func ByIP(c *fiber.Ctx) string {
	return c.IP()
}

// ByEmail keys requests by the email field of a JSON body, falling back to the client IP.
func ByEmail(c *fiber.Ctx) string {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.BodyParser(&req)
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		return email
	}
	return c.IP()
}

// RateLimit allows maxPerMin requests per key and scope using Redis if available.
func RateLimit(cache *redis.Client, scope string, maxPerMin int, keyFn KeyFunc) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	if keyFn == nil {
		keyFn = ByIP
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		key := "rl:" + scope + ":" + keyFn(c)
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
