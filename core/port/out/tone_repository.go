package out

import (
	"context"

	"tone_server/core/domain"
)

// AnalysisRepository stores per-email analysis history.
type AnalysisRepository interface {
	SaveAnalyses(ctx context.Context, analyses []domain.EmailAnalysis) error
	// ListToneAxes returns every stored tone-axes record of a user, oldest first.
	ListToneAxes(ctx context.Context, userID string) ([]domain.ToneAxes, error)
	// ListAnalyses returns the most recent analyses of a user, newest first.
	ListAnalyses(ctx context.Context, userID string, limit int) ([]*domain.EmailAnalysis, error)
	// ExistingEmailIDs returns which of emailIDs already have an analysis.
	ExistingEmailIDs(ctx context.Context, userID string, emailIDs []string) (map[string]bool, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// ProfileRepository persists aggregated profiles.
type ProfileRepository interface {
	SaveProfile(ctx context.Context, userID string, profile domain.UserProfile) error
	// GetProfile returns nil without error when the user has no stored profile.
	GetProfile(ctx context.Context, userID string) (*domain.StoredProfile, error)
}

// ProfileCache is a read-through cache in front of ProfileRepository.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*domain.StoredProfile, error)
	Set(ctx context.Context, profile *domain.StoredProfile) error
	Invalidate(ctx context.Context, userID string) error
}
