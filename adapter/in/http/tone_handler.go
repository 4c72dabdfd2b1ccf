// Package http exposes the tone service over fiber.
package http

import (
	"github.com/gofiber/fiber/v2"

	"tone_server/core/domain"
	"tone_server/core/port/in"
	"tone_server/infra/middleware"
	"tone_server/pkg/apperr"
	"tone_server/pkg/ratelimit"
	"tone_server/pkg/response"
)

const defaultHistoryLimit = 50

// ToneHandler handles analysis, profile and style requests.
type ToneHandler struct {
	service        in.ToneService
	improveLimiter ratelimit.Limiter
	maxEmails      int
}

// NewToneHandler creates a new tone handler. A nil limiter leaves improve unthrottled.
func NewToneHandler(service in.ToneService, improveLimiter ratelimit.Limiter, maxEmails int) *ToneHandler {
	return &ToneHandler{
		service:        service,
		improveLimiter: improveLimiter,
		maxEmails:      maxEmails,
	}
}

// Register registers tone routes.
func (h *ToneHandler) Register(router fiber.Router) {
	router.Post("/analyze/text", h.AnalyzeText)

	users := router.Group("/users/:user_id", middleware.ValidateUserID("user_id"))

	users.Post("/emails/analyze", h.AnalyzeBatch)
	users.Post("/emails/enqueue", h.EnqueueBatch)
	users.Get("/analyses", h.History)

	users.Get("/profile", h.GetProfile)
	users.Post("/profile/rebuild", h.RebuildProfile)

	users.Post("/style/validate", h.ValidateStyle)
	if h.improveLimiter != nil {
		users.Post("/style/improve", middleware.RateLimit(h.improveLimiter, "user_id"), h.ImproveDraft)
	} else {
		users.Post("/style/improve", h.ImproveDraft)
	}
}

// =============================================================================
// Request bodies
// =============================================================================

type batchRequest struct {
	Emails []domain.EmailInput `json:"emails"`
}

type textRequest struct {
	Text string `json:"text"`
}

// =============================================================================
// Handlers
// =============================================================================

// AnalyzeBatch analyzes emails synchronously and returns the refreshed profile.
func (h *ToneHandler) AnalyzeBatch(c *fiber.Ctx) error {
	req, err := h.parseBatch(c)
	if err != nil {
		return err
	}

	result, err := h.service.AnalyzeBatch(c.UserContext(), c.Params("user_id"), req.Emails)
	if err != nil {
		return err
	}
	return response.OK(c, result)
}

// EnqueueBatch hands emails to the background worker.
func (h *ToneHandler) EnqueueBatch(c *fiber.Ctx) error {
	req, err := h.parseBatch(c)
	if err != nil {
		return err
	}

	jobID, err := h.service.EnqueueBatch(c.UserContext(), c.Params("user_id"), req.Emails)
	if err != nil {
		return err
	}
	return response.Accepted(c, fiber.Map{"job_id": jobID, "emails": len(req.Emails)})
}

// AnalyzeText extracts and classifies one text without persisting anything.
func (h *ToneHandler) AnalyzeText(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.service.AnalyzeText(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return response.OK(c, result)
}

// History lists the most recent analyses of a user.
func (h *ToneHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 {
		return apperr.ValidationFailed("limit must be positive")
	}

	analyses, err := h.service.History(c.UserContext(), c.Params("user_id"), limit)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, analyses, &response.Meta{Total: len(analyses), Limit: limit})
}

// GetProfile returns the stored profile.
func (h *ToneHandler) GetProfile(c *fiber.Ctx) error {
	stored, err := h.service.GetProfile(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return err
	}
	return response.OK(c, stored)
}

// RebuildProfile recomputes the profile from history, in the background with ?async=true.
func (h *ToneHandler) RebuildProfile(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	if c.QueryBool("async", false) {
		jobID, err := h.service.EnqueueRebuild(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return response.Accepted(c, fiber.Map{"job_id": jobID})
	}

	stored, err := h.service.Rebuild(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, stored)
}

// ValidateStyle compares a generated text with the user's profile.
func (h *ToneHandler) ValidateStyle(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	report, err := h.service.Validate(c.UserContext(), c.Params("user_id"), req.Text)
	if err != nil {
		return err
	}
	return response.OK(c, report)
}

// ImproveDraft rewrites a draft in the user's style.
func (h *ToneHandler) ImproveDraft(c *fiber.Ctx) error {
	var draft domain.DraftRequest
	if err := c.BodyParser(&draft); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	improved, err := h.service.Improve(c.UserContext(), c.Params("user_id"), draft)
	if err != nil {
		return err
	}
	return response.OK(c, improved)
}

func (h *ToneHandler) parseBatch(c *fiber.Ctx) (*batchRequest, error) {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperr.BadRequest("invalid request body")
	}
	if len(req.Emails) == 0 {
		return nil, apperr.MissingField("emails")
	}
	if h.maxEmails > 0 && len(req.Emails) > h.maxEmails {
		return nil, apperr.ValidationFailed("too many emails in one request").
			WithDetail("max", h.maxEmails).
			WithDetail("received", len(req.Emails))
	}
	return &req, nil
}
