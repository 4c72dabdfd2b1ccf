package stream

import (
	"context"
	"time"

	"tone_server/adapter/in/worker"
	"tone_server/core/port/out"
)

var _ out.JobPublisher = (*Producer)(nil)

// Publisher is the write side of a stream.
type Publisher interface {
	Publish(ctx context.Context, stream string, data any) (string, error)
}

type Producer struct {
	stream Publisher
}

func NewProducer(stream Publisher) *Producer {
	return &Producer{stream: stream}
}

// Job is the wire format of every stream entry.
type Job struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (p *Producer) PublishAnalysisJob(ctx context.Context, job *out.AnalysisJob) error {
	_, err := p.stream.Publish(ctx, StreamAnalysis, &Job{
		ID:   job.ID,
		Type: worker.JobAnalyzeBatch,
		Payload: map[string]any{
			"user_id": job.UserID,
			"emails":  job.Emails,
		},
		CreatedAt: job.CreatedAt,
	})
	return err
}

func (p *Producer) PublishRebuildJob(ctx context.Context, job *out.RebuildJob) error {
	_, err := p.stream.Publish(ctx, StreamProfile, &Job{
		ID:   job.ID,
		Type: worker.JobRebuildProfile,
		Payload: map[string]any{
			"user_id": job.UserID,
		},
		CreatedAt: job.CreatedAt,
	})
	return err
}
