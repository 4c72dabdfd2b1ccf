package in

import (
	"context"

	"tone_server/core/domain"
)

// ToneService is the application API of the tone analyzer.
type ToneService interface {
	AnalyzeBatch(ctx context.Context, userID string, emails []domain.EmailInput) (*domain.BatchResult, error)
	EnqueueBatch(ctx context.Context, userID string, emails []domain.EmailInput) (jobID string, err error)
	AnalyzeText(ctx context.Context, text string) (*domain.TextAnalysis, error)
	History(ctx context.Context, userID string, limit int) ([]*domain.EmailAnalysis, error)
	GetProfile(ctx context.Context, userID string) (*domain.StoredProfile, error)
	Rebuild(ctx context.Context, userID string) (*domain.StoredProfile, error)
	EnqueueRebuild(ctx context.Context, userID string) (jobID string, err error)
	Validate(ctx context.Context, userID, text string) (*domain.ValidationReport, error)
	Improve(ctx context.Context, userID string, draft domain.DraftRequest) (*domain.ImprovedDraft, error)
}

// EmailAnalyzer runs the single-email pipeline: clean, extract, classify.
type EmailAnalyzer interface {
	AnalyzeEmail(email domain.EmailInput) domain.AnalysisOutcome
}
