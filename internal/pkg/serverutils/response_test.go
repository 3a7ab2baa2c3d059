package serverutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=10"`
}

func TestValidateRequest(t *testing.T) {
	err := ValidateRequest(sampleRequest{Email: "a@b.com", Message: "hi"})
	assert.NoError(t, err)

	err = ValidateRequest(sampleRequest{Email: "not-an-email", Message: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "Email")
	assert.Contains(t, err.Error(), "Message")
}

func TestSuccessResponseEnvelope(t *testing.T) {
	res := SuccessResponse("done", map[string]int{"n": 1})

	assert.True(t, res.Success)
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "done", res.Message)
	assert.Equal(t, 1, res.Data["n"])
}

func TestErrorHandlerMiddlewareMapsFiberErrors(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body APIResponse[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, 404, body.Code)
	assert.Equal(t, "session not found", body.Message)
}

func TestErrorHandlerMiddlewareWrapsUnknownErrors(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body APIResponse[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, 500, body.Code)
}
