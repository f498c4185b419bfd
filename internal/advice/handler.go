package advice

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const maxMessageLength = 4000

// Handler exposes the advice chat endpoint.
type Handler struct {
	gateway *Gateway
}

// NewHandler constructs an advice HTTP handler.
func NewHandler(gateway *Gateway) *Handler {
	return &Handler{gateway: gateway}
}

type adviceRequest struct {
	History []Message `json:"history"`
	Message string    `json:"message"`
}

type adviceResponse struct {
	Reply string `json:"reply"`
}

// Ask returns a reply to the client's message. Provider failures still
// produce a 200 carrying the fallback reply.
func (h *Handler) Ask(c *fiber.Ctx) error {
	var req adviceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return fiber.NewError(http.StatusBadRequest, "message is required")
	}
	if len(msg) > maxMessageLength {
		return fiber.NewError(http.StatusBadRequest, "message is too long")
	}
	reply := h.gateway.GetAdvice(c.UserContext(), req.History, msg)
	return c.Status(http.StatusOK).JSON(adviceResponse{Reply: reply})
}
