package helper

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund_backend/internals/helpers/apperr"
)

func errorApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return FromError(c, err) })
	return app
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestFromError_AppErrKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Validation("amount must be at least 200"), 400, "VALIDATION_ERROR"},
		{apperr.StateConflict("campaign is not approved"), 409, "STATE_CONFLICT"},
		{apperr.NotFound("campaign not found"), 404, "NOT_FOUND"},
		{apperr.Processor(errors.New("timeout"), "gateway unavailable"), 502, "PROCESSOR_ERROR"},
		{apperr.PaymentIncomplete("payment not yet confirmed"), 402, "PAYMENT_INCOMPLETE"},
		{apperr.MetadataParse("bad amount"), 422, "METADATA_PARSE_ERROR"},
	}
	for _, tc := range cases {
		resp, err := errorApp(tc.err).Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.code)
		body := decodeError(t, resp.Body)
		assert.False(t, body.Success)
		assert.Equal(t, tc.code, body.ErrorCode)
	}
}

func TestFromError_FiberAndPlain(t *testing.T) {
	resp, err := errorApp(fiber.NewError(fiber.StatusUnauthorized, "Not logged in")).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp.Body).ErrorCode)

	resp, err = errorApp(errors.New("db exploded")).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	body := decodeError(t, resp.Body)
	assert.NotContains(t, body.Message, "db exploded")
}

func TestGetUserIDFromToken(t *testing.T) {
	app := fiber.New()
	app.Get("/:mode", func(c *fiber.Ctx) error {
		switch c.Params("mode") {
		case "ok":
			c.Locals(LocUserID, "6f1c3a52-6a5e-4bb0-9a57-2f1cc33fbd6a")
		case "bad":
			c.Locals(LocUserID, "not-a-uuid")
		}
		id, err := GetUserIDFromToken(c)
		if err != nil {
			return FromError(c, err)
		}
		return c.SendString(id.String())
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/ok", nil))
	assert.Equal(t, 200, resp.StatusCode)
	resp, _ = app.Test(httptest.NewRequest("GET", "/bad", nil))
	assert.Equal(t, 400, resp.StatusCode)
	resp, _ = app.Test(httptest.NewRequest("GET", "/none", nil))
	assert.Equal(t, 401, resp.StatusCode)
}

func TestParseAndValidate_ReportsJSONFieldNames(t *testing.T) {
	type req struct {
		GoalAmount int64 `json:"goal_amount" validate:"required,gte=1000"`
	}
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var body req
		if handled, err := ParseAndValidate(c, &body); handled {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"goal_amount":10}`))
	r.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(r)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	body := decodeError(t, resp.Body)
	assert.Equal(t, []string{"gte"}, body.Errors["goal_amount"])
}
