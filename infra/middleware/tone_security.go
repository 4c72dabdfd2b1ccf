package middleware

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tone_server/pkg/apperr"
	"tone_server/pkg/ratelimit"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@:\-]{1,128}$`)

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		return c.Next()
	}
}

// ValidateUserID rejects a user id path parameter that is empty, too long or
// contains characters outside the id alphabet.
func ValidateUserID(paramName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		value := c.Params(paramName)
		if value == "" {
			return apperr.MissingField(paramName)
		}
		if !userIDPattern.MatchString(value) {
			return apperr.ValidationFailed("invalid user id").WithDetail("field", paramName)
		}
		return c.Next()
	}
}

// ValidateContentType requires a JSON body on requests that carry one.
func ValidateContentType() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}
		if len(c.Body()) == 0 {
			return c.Next()
		}
		if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
			return apperr.New(apperr.CodeBadRequest, "content type must be application/json", fiber.StatusUnsupportedMediaType)
		}
		return c.Next()
	}
}

// RateLimit throttles requests per user id path parameter, falling back to the client IP.
func RateLimit(limiter ratelimit.Limiter, paramName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params(paramName)
		if key == "" {
			key = c.IP()
		}

		allowed, wait := limiter.Allow(c.UserContext(), key)
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return apperr.RateLimited(wait)
		}
		return c.Next()
	}
}
