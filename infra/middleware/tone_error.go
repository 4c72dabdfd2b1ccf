package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tone_server/pkg/apperr"
	"tone_server/pkg/logger"
	"tone_server/pkg/metrics"
)

const localRequestID = "request_id"

type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders every handler error as an ErrorResponse.
// 5xx causes are logged; their messages never reach the client.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := normalize(err)
		requestID := requestIDOf(c)

		log := logger.WithField("request_id", requestID).WithField("error_code", appErr.Code)
		if appErr.Err != nil {
			log = log.WithError(appErr.Err)
		}
		if appErr.Status >= fiber.StatusInternalServerError {
			log.Error("[ErrorHandler] %s %s: %s", c.Method(), c.Path(), appErr.Message)
		} else {
			log.Debug("[ErrorHandler] %s %s: %s", c.Method(), c.Path(), appErr.Message)
		}

		return writeError(c, appErr)
	}
}

// normalize maps any error onto an AppError. Fiber's own errors keep their status.
func normalize(err error) *apperr.AppError {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperr.New(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code)
	}
	e := apperr.InternalWithError(err)
	e.Message = "An unexpected error occurred"
	return e
}

func writeError(c *fiber.Ctx, e *apperr.AppError) error {
	return c.Status(e.Status).JSON(ErrorResponse{
		Error:     ErrorDetail{Code: e.Code, Message: e.Message, Details: e.Details},
		RequestID: requestIDOf(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

// RequestID propagates X-Request-ID, generating one when the client sent none.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

// RequestLogger logs one line per request and records latency per route pattern,
// so /users/a/profile and /users/b/profile share a tracker.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			// render now so the logged status is the one the client gets
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		metrics.RecordLatency(c.Method()+" "+c.Route().Path, elapsed)

		fields := map[string]any{
			"request_id":  requestIDOf(c),
			"status":      status,
			"duration_ms": float64(elapsed.Microseconds()) / 1000,
			"ip":          c.IP(),
		}
		if userID := c.Params("user_id"); userID != "" {
			fields["user_id"] = userID
		}
		log := logger.WithFields(fields)

		switch {
		case status >= 500:
			log.Error("%s %s -> %d", c.Method(), c.Path(), status)
		case status >= 400:
			log.Warn("%s %s -> %d", c.Method(), c.Path(), status)
		default:
			log.Info("%s %s -> %d", c.Method(), c.Path(), status)
		}
		return nil
	}
}

// Recover turns a handler panic into an INTERNAL_ERROR response.
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.WithFields(map[string]any{
				"request_id": requestIDOf(c),
				"panic":      fmt.Sprint(r),
				"stack":      string(debug.Stack()),
			}).Error("[Recover] %s %s", c.Method(), c.Path())

			err = writeError(c, normalize(fmt.Errorf("panic: %v", r)))
		}()
		return c.Next()
	}
}

func codeForStatus(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return apperr.CodeNotFound
	case status == fiber.StatusRequestEntityTooLarge:
		return apperr.CodeValidationFailed
	case status == fiber.StatusTooManyRequests:
		return apperr.CodeRateLimited
	case status == fiber.StatusRequestTimeout, status == fiber.StatusGatewayTimeout:
		return apperr.CodeTimeout
	case status >= 500:
		return apperr.CodeInternalError
	default:
		return apperr.CodeBadRequest
	}
}
