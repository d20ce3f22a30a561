package handlers_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybuy/internal/domain"
	"easybuy/internal/http/handlers"
)

func TestErrorHandlerStatusMapping(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())

	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("token: %w", domain.ErrUnauthenticated), 403},
		{fmt.Errorf("booking b1: %w", domain.ErrForbidden), 403},
		{domain.Invalidf("price must be a non-negative number"), 400},
		{fmt.Errorf("product p1: %w", domain.ErrNotFound), 404},
		{fmt.Errorf("product p1 is booked: %w", domain.ErrConflict), 409},
		{fmt.Errorf("%w: amount 100, want 5000", domain.ErrPaymentUnverified), 402},
		{&domain.UpstreamError{Op: "get intent", Err: errors.New("stripe: 500")}, 502},
		{fiber.ErrMethodNotAllowed, 405},
		{errors.New("disk on fire"), 500},
	}
	for i, tc := range cases {
		err := tc.err
		app.Get(fmt.Sprintf("/e/%d", i), func(c *fiber.Ctx) error { return err })
	}
	for i, tc := range cases {
		resp, rerr := app.Test(httptest.NewRequest("GET", fmt.Sprintf("/e/%d", i), nil))
		require.NoError(t, rerr)
		assert.Equal(t, tc.code, resp.StatusCode, tc.err.Error())
	}
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/upstream", func(c *fiber.Ctx) error {
		return &domain.UpstreamError{Op: "create intent", Err: errors.New("sk_live_secret rejected")}
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return domain.Invalidf("productId does not match the booking")
	})

	var logs []logEntry
	var body string
	logs = captureLogs(t, func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/err", nil))
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
	})
	assert.JSONEq(t, `{"message":"internal server error"}`, body)
	e, ok := findLog(logs, "server.error")
	require.True(t, ok, "server.error not logged")
	assert.Equal(t, "error", e.Level)
	assert.NotEmpty(t, e.ReqID)

	resp, err := app.Test(httptest.NewRequest("GET", "/upstream", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(b), "sk_live")

	resp, err = app.Test(httptest.NewRequest("GET", "/invalid", nil))
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"message":"productId does not match the booking"}`, string(b))
}
