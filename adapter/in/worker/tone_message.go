package worker

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"tone_server/core/domain"
)

// JobType represents the type of a job.
type JobType = string

const (
	JobAnalyzeBatch   JobType = "tone.analyze_batch"
	JobRebuildProfile JobType = "tone.rebuild_profile"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	Retries   int            `json:"retries"`
}

func NewMessage(jobType string, payload map[string]any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// AnalyzeBatchPayload is the payload of JobAnalyzeBatch.
type AnalyzeBatchPayload struct {
	UserID string              `json:"user_id"`
	Emails []domain.EmailInput `json:"emails"`
}

// RebuildProfilePayload is the payload of JobRebuildProfile.
type RebuildProfilePayload struct {
	UserID string `json:"user_id"`
}

func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
