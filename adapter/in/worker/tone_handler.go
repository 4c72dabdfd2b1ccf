package worker

import (
	"context"
	"fmt"

	"tone_server/core/port/in"
	"tone_server/pkg/logger"
)

// Handler dispatches stream messages to the tone service.
type Handler struct {
	service in.ToneService
	log     *logger.Logger
}

func NewHandler(service in.ToneService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{service: service, log: log}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	h.log.Debug("[Handler.Process] message %s type=%s", msg.ID, msg.Type)

	switch msg.Type {
	case JobAnalyzeBatch:
		return h.analyzeBatch(ctx, msg)
	case JobRebuildProfile:
		return h.rebuildProfile(ctx, msg)
	default:
		h.log.Warn("[Handler.Process] unknown job type: %s", msg.Type)
		return nil
	}
}

func (h *Handler) analyzeBatch(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[AnalyzeBatchPayload](msg)
	if err != nil {
		return fmt.Errorf("parse %s payload: %w", msg.Type, err)
	}

	result, err := h.service.AnalyzeBatch(ctx, payload.UserID, payload.Emails)
	if err != nil {
		return err
	}

	h.log.Info("[Handler.analyzeBatch] job=%s user=%s analyzed=%d failed=%d skipped=%d",
		msg.ID, payload.UserID, result.Analyzed, result.Failed, result.Skipped)
	return nil
}

func (h *Handler) rebuildProfile(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[RebuildProfilePayload](msg)
	if err != nil {
		return fmt.Errorf("parse %s payload: %w", msg.Type, err)
	}

	stored, err := h.service.Rebuild(ctx, payload.UserID)
	if err != nil {
		return err
	}

	h.log.Info("[Handler.rebuildProfile] job=%s user=%s emails=%d", msg.ID, payload.UserID, stored.Profile.EmailCount)
	return nil
}
