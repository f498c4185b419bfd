package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors as {"error": ..., "request_id": ...}. Unexpected
// errors are logged and reported as 500 without their message.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else if logger != nil {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}

		body := fiber.Map{"error": message}
		if id := RequestIDFrom(c); id != "" {
			body["request_id"] = id
		}
		return c.Status(code).JSON(body)
	}
}
