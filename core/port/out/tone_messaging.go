package out

import (
	"context"
	"time"

	"tone_server/core/domain"
)

// AnalysisJob asks a worker to analyze a batch asynchronously.
type AnalysisJob struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Emails    []domain.EmailInput `json:"emails"`
	CreatedAt time.Time           `json:"created_at"`
}

// RebuildJob asks a worker to recompute a user's profile from stored history.
type RebuildJob struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// JobPublisher hands jobs to the worker process.
type JobPublisher interface {
	PublishAnalysisJob(ctx context.Context, job *AnalysisJob) error
	PublishRebuildJob(ctx context.Context, job *RebuildJob) error
}

// BatchAnalyzer analyzes every email of a batch in parallel and returns one
// outcome per input, in input order, once all of them have finished.
type BatchAnalyzer interface {
	AnalyzeAll(ctx context.Context, emails []domain.EmailInput) ([]domain.AnalysisOutcome, error)
}
