package serverutils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"token-pattern-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	type req struct {
		K     int     `validate:"min=1,max=100"`
		Label string  `validate:"required"`
		Min   float64 `validate:"gte=0,lte=1"`
	}

	assert.NoError(t, ValidateRequest(req{K: 10, Label: "pump", Min: 0.5}))

	err := ValidateRequest(req{K: 0, Min: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Contains(t, err.Error(), "K failed on min=1")
	assert.Contains(t, err.Error(), "Label failed on required")
}

func decode(t *testing.T, body io.Reader) BaseResponse[any] {
	t.Helper()
	var res BaseResponse[any]
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/app", func(c *fiber.Ctx) error {
		return apperror.ErrUnknownLabel.WithMessage("label %q has no holders", "pump")
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "teapot")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})

	tests := []struct {
		path      string
		status    int
		errorCode string
	}{
		{"/app", 404, "UNKNOWN_LABEL"},
		{"/fiber", 418, ""},
		{"/plain", 500, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			res := decode(t, resp.Body)
			assert.False(t, res.Success)
			assert.Equal(t, tt.status, res.Code)
			assert.Equal(t, tt.errorCode, res.ErrorCode)
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "s3cret"
	app := fiber.New()
	app.Post("/guarded", NewJwtMiddleware(secret), func(c *fiber.Ctx) error {
		return c.JSON(SuccessResponse("ok", c.Locals("subject")))
	})

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "analyst",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", 401},
		{"wrong secret", "Bearer " + mustSign(t, "other"), 401},
		{"valid", "Bearer " + signed, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/guarded", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	open := fiber.New()
	open.Post("/open", NewJwtMiddleware(""), func(c *fiber.Ctx) error { return c.SendStatus(204) })
	resp, err := open.Test(httptest.NewRequest("POST", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func mustSign(t *testing.T, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}
