package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tone_server/pkg/apperr"
	"tone_server/pkg/metrics"
)

type countingLimiter struct {
	allow int
	calls int
	keys  []string
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	l.calls++
	l.keys = append(l.keys, key)
	return l.calls <= l.allow, 800 * time.Millisecond
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(Recover(), RequestID(), RequestLogger(), SecurityHeaders())
	return app
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp()
	app.Get("/app", func(c *fiber.Ctx) error {
		return fmt.Errorf("wrapped: %w", apperr.ProfileNotFound("u1"))
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTooManyRequests, "slow down")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/app", fiber.StatusNotFound, apperr.CodeProfileNotFound},
		{"/fiber", fiber.StatusTooManyRequests, apperr.CodeRateLimited},
		{"/plain", fiber.StatusInternalServerError, apperr.CodeInternalError},
		{"/panic", fiber.StatusInternalServerError, apperr.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tt.path, nil)
			req.Header.Set("X-Request-ID", "req-1")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "req-1", resp.Header.Get("X-Request-ID"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

			body := decodeError(t, resp.Body)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestRequestLogger_RecordsRouteLatency(t *testing.T) {
	app := newTestApp()
	app.Get("/users/:user_id/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/users/u7/ping", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	stats := metrics.GetAllLatencyStats()
	require.Contains(t, stats, "GET /users/:user_id/ping")
	assert.GreaterOrEqual(t, stats["GET /users/:user_id/ping"].Count, int64(1))
}

func TestValidateUserID(t *testing.T) {
	app := newTestApp()
	app.Get("/users/:user_id", ValidateUserID("user_id"), func(c *fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		id     string
		status int
	}{
		{"user-42", fiber.StatusOK},
		{"ann@example.com", fiber.StatusOK},
		{"bad$id", fiber.StatusBadRequest},
		{strings.Repeat("a", 129), fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/users/"+tt.id, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tt.status, resp.StatusCode, tt.id)
	}
}

func TestValidateContentType(t *testing.T) {
	app := newTestApp()
	app.Post("/x", ValidateContentType(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(fiber.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{allow: 1}
	app := newTestApp()
	app.Post("/users/:user_id/improve", RateLimit(limiter, "user_id"), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/users/u1/improve", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/users/u1/improve", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, []string{"u1", "u1"}, limiter.keys)

	body := decodeError(t, resp.Body)
	assert.Equal(t, apperr.CodeRateLimited, body.Error.Code)
	assert.EqualValues(t, 800, body.Error.Details["retry_after_ms"])
}
