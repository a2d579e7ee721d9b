package httpx

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/apperrors"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestFromErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.E(apperrors.KindNotFound, "group g1"), fiber.StatusNotFound, "not_found"},
		{"permission denied", apperrors.E(apperrors.KindPermissionDenied, "not a member"), fiber.StatusForbidden, "permission_denied"},
		{"invalid argument", apperrors.E(apperrors.KindInvalidArgument, "bad body"), fiber.StatusBadRequest, "invalid_argument"},
		{"conflict", apperrors.E(apperrors.KindConflict, "stale write"), fiber.StatusConflict, "conflict"},
		{"internal", errors.New("pq: connection refused"), fiber.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return FromError(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tc.wantCode, body.Code)
			// Internal details must never reach the client.
			require.NotContains(t, body.Error, "pq:")
			require.NotContains(t, body.Error, "g1")
		})
	}
}

func TestLocalString(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("userID", "alice")
		v, err := LocalString(c, "userID")
		require.NoError(t, err)
		require.Equal(t, "alice", v)

		_, err = LocalString(c, "missing")
		require.Error(t, err)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
