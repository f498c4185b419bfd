package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/rating"
)

const quoteCurrency = "NGN"

// RegisterQuoteRoutes wires the public premium estimator. declared_value is
// accepted as an alias of value so the policy request body can be reused.
func RegisterQuoteRoutes(r fiber.Router) {
	r.Post("/quotes/estimate", func(c *fiber.Ctx) error {
		var req struct {
			Category      string  `json:"category"`
			Value         float64 `json:"value"`
			DeclaredValue float64 `json:"declared_value"`
			Duration      float64 `json:"duration"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		category, ok := rating.ParseCategory(req.Category)
		if !ok {
			return fiber.NewError(http.StatusBadRequest, "unknown insurance category")
		}
		value := req.Value
		if value == 0 {
			value = req.DeclaredValue
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"category": category,
			"premium":  rating.EstimatePremium(category, value, req.Duration),
			"currency": quoteCurrency,
		})
	})
}
