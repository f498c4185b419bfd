package advice

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskHandler(t *testing.T) {
	app := fiber.New()
	app.Post("/advice", NewHandler(NewGateway(Unavailable{}, Options{}, nil)).Ask)

	req := httptest.NewRequest(fiber.MethodPost, "/advice", strings.NewReader(`{"history":[{"role":"user","content":"hi"}],"message":"Is Travel covered?"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body adviceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, FallbackReply, body.Reply)

	blank := httptest.NewRequest(fiber.MethodPost, "/advice", strings.NewReader(`{"message":"  "}`))
	blank.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp2, err := app.Test(blank)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp2.StatusCode)
}
