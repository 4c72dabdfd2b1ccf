// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tone_server/core/domain"
	"tone_server/core/port/out"
)

var _ out.AnalysisRepository = (*AnalysisAdapter)(nil)

// Schema creates the analysis history table.
const Schema = `
CREATE TABLE IF NOT EXISTS email_analyses (
	id          UUID PRIMARY KEY,
	user_id     TEXT NOT NULL,
	email_id    TEXT NOT NULL,
	features    JSONB NOT NULL,
	tone_axes   JSONB NOT NULL,
	analyzed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, email_id)
);
CREATE INDEX IF NOT EXISTS idx_email_analyses_user ON email_analyses (user_id, analyzed_at);
`

// AnalysisAdapter implements out.AnalysisRepository using PostgreSQL.
type AnalysisAdapter struct {
	db *sqlx.DB
}

// NewAnalysisAdapter creates a new AnalysisAdapter.
func NewAnalysisAdapter(db *sqlx.DB) *AnalysisAdapter {
	return &AnalysisAdapter{db: db}
}

// Migrate applies Schema.
func (a *AnalysisAdapter) Migrate(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate email_analyses: %w", err)
	}
	return nil
}

// analysisRow represents the database row for one analysis.
type analysisRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	EmailID    string    `db:"email_id"`
	Features   []byte    `db:"features"`
	ToneAxes   []byte    `db:"tone_axes"`
	AnalyzedAt time.Time `db:"analyzed_at"`
}

func toAnalysisRow(a domain.EmailAnalysis) (*analysisRow, error) {
	features, err := json.Marshal(a.Features)
	if err != nil {
		return nil, fmt.Errorf("encode features of %s: %w", a.EmailID, err)
	}
	axes, err := json.Marshal(a.Axes)
	if err != nil {
		return nil, fmt.Errorf("encode tone axes of %s: %w", a.EmailID, err)
	}

	return &analysisRow{
		ID:         a.ID,
		UserID:     a.UserID,
		EmailID:    a.EmailID,
		Features:   features,
		ToneAxes:   axes,
		AnalyzedAt: a.AnalyzedAt,
	}, nil
}

func (r *analysisRow) toEntity() (*domain.EmailAnalysis, error) {
	a := &domain.EmailAnalysis{
		ID:         r.ID,
		UserID:     r.UserID,
		EmailID:    r.EmailID,
		AnalyzedAt: r.AnalyzedAt,
	}
	if len(r.Features) > 0 {
		a.Features = &domain.FeatureSet{}
		if err := json.Unmarshal(r.Features, a.Features); err != nil {
			return nil, fmt.Errorf("decode features of %s: %w", r.EmailID, err)
		}
	}
	if err := json.Unmarshal(r.ToneAxes, &a.Axes); err != nil {
		return nil, fmt.Errorf("decode tone axes of %s: %w", r.EmailID, err)
	}
	return a, nil
}

// SaveAnalyses inserts analyses in one transaction. Re-analyzed emails are ignored.
func (a *AnalysisAdapter) SaveAnalyses(ctx context.Context, analyses []domain.EmailAnalysis) error {
	if len(analyses) == 0 {
		return nil
	}

	rows := make([]*analysisRow, 0, len(analyses))
	for _, an := range analyses {
		row, err := toAnalysisRow(an)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO email_analyses (id, user_id, email_id, features, tone_axes, analyzed_at)
		VALUES (:id, :user_id, :email_id, :features, :tone_axes, :analyzed_at)
		ON CONFLICT (user_id, email_id) DO NOTHING`

	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("failed to insert analysis %s: %w", row.EmailID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analyses: %w", err)
	}
	return nil
}

// ListToneAxes returns every tone-axes record of a user, oldest first.
func (a *AnalysisAdapter) ListToneAxes(ctx context.Context, userID string) ([]domain.ToneAxes, error) {
	var raw [][]byte
	query := `SELECT tone_axes FROM email_analyses WHERE user_id = $1 ORDER BY analyzed_at, id`

	if err := a.db.SelectContext(ctx, &raw, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list tone axes: %w", err)
	}

	axes := make([]domain.ToneAxes, 0, len(raw))
	for _, r := range raw {
		var t domain.ToneAxes
		if err := json.Unmarshal(r, &t); err != nil {
			return nil, fmt.Errorf("failed to decode tone axes: %w", err)
		}
		axes = append(axes, t)
	}
	return axes, nil
}

// ListAnalyses returns the most recent analyses of a user, newest first.
func (a *AnalysisAdapter) ListAnalyses(ctx context.Context, userID string, limit int) ([]*domain.EmailAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []analysisRow
	query := `
		SELECT id, user_id, email_id, features, tone_axes, analyzed_at
		FROM email_analyses WHERE user_id = $1
		ORDER BY analyzed_at DESC LIMIT $2`

	if err := a.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	result := make([]*domain.EmailAnalysis, 0, len(rows))
	for i := range rows {
		an, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		result = append(result, an)
	}
	return result, nil
}

// ExistingEmailIDs returns which of emailIDs already have an analysis.
func (a *AnalysisAdapter) ExistingEmailIDs(ctx context.Context, userID string, emailIDs []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(emailIDs) == 0 {
		return found, nil
	}

	var ids []string
	query := `SELECT email_id FROM email_analyses WHERE user_id = $1 AND email_id = ANY($2)`

	if err := a.db.SelectContext(ctx, &ids, query, userID, pq.Array(emailIDs)); err != nil {
		return nil, fmt.Errorf("failed to check analyzed emails: %w", err)
	}

	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}

// CountByUser returns how many emails of a user were analyzed.
func (a *AnalysisAdapter) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM email_analyses WHERE user_id = $1`

	if err := a.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}
