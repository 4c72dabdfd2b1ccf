package worker

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tone_server/core/domain"
	"tone_server/core/port/in"
	"tone_server/pkg/apperr"
	"tone_server/pkg/logger"
)

type stubAnalyzer struct {
	calls int64
	delay time.Duration
}

func (s *stubAnalyzer) AnalyzeEmail(email domain.EmailInput) domain.AnalysisOutcome {
	atomic.AddInt64(&s.calls, 1)
	if strings.Contains(email.Body, "slow") {
		time.Sleep(s.delay)
	}
	if strings.TrimSpace(email.Body) == "" {
		return domain.AnalysisOutcome{EmailID: email.ID, Error: "empty", Code: apperr.CodeInputValidation}
	}
	return domain.AnalysisOutcome{
		EmailID:  email.ID,
		Features: &domain.FeatureSet{WordCount: len(strings.Fields(email.Body))},
		Axes:     &domain.ToneAxes{Formality: domain.Informal},
	}
}

func TestPool_AnalyzeAllKeepsOrder(t *testing.T) {
	analyzer := &stubAnalyzer{}
	p := NewPool(analyzer, &PoolConfig{Workers: 4, BatchSize: 1, WorkerChanSize: 4, JobTimeout: time.Second}, zerolog.Nop())

	emails := make([]domain.EmailInput, 25)
	for i := range emails {
		emails[i] = domain.EmailInput{ID: string(rune('a' + i)), Body: strings.Repeat("word ", i+1)}
	}
	emails[3].Body = "  "

	outcomes, err := p.AnalyzeAll(context.Background(), emails)
	require.NoError(t, err)
	require.Len(t, outcomes, len(emails))

	for i, o := range outcomes {
		assert.Equal(t, emails[i].ID, o.EmailID)
		if i == 3 {
			assert.True(t, o.Failed())
			continue
		}
		require.NotNil(t, o.Features)
		assert.Equal(t, i+1, o.Features.WordCount)
	}

	m := p.GetMetrics()
	assert.Equal(t, int64(24), m.EmailsProcessed)
	assert.Equal(t, int64(1), m.EmailsFailed)
	assert.Equal(t, int64(1), m.Batches)
	assert.Equal(t, int64(25), atomic.LoadInt64(&analyzer.calls))
	assert.Equal(t, int64(25), p.Latency().Count)
}

func TestPool_Timeout(t *testing.T) {
	analyzer := &stubAnalyzer{delay: 200 * time.Millisecond}
	p := NewPool(analyzer, &PoolConfig{Workers: 2, BatchSize: 1, WorkerChanSize: 2, JobTimeout: 20 * time.Millisecond}, zerolog.Nop())

	outcomes, err := p.AnalyzeAll(context.Background(), []domain.EmailInput{
		{ID: "fast", Body: "quick note"},
		{ID: "slow", Body: "slow note"},
	})
	require.NoError(t, err)

	assert.False(t, outcomes[0].Failed())
	assert.True(t, outcomes[1].Failed())
	assert.Equal(t, apperr.CodeTimeout, outcomes[1].Code)
	assert.Equal(t, int64(1), p.GetMetrics().EmailsTimedOut)
}

func TestPool_EmptyBatch(t *testing.T) {
	p := NewPool(&stubAnalyzer{}, nil, zerolog.Nop())

	outcomes, err := p.AnalyzeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

type fakeService struct {
	in.ToneService
	batchUser   string
	batchEmails []domain.EmailInput
	rebuilt     string
}

func (f *fakeService) AnalyzeBatch(_ context.Context, userID string, emails []domain.EmailInput) (*domain.BatchResult, error) {
	f.batchUser = userID
	f.batchEmails = emails
	return &domain.BatchResult{UserID: userID, Analyzed: len(emails)}, nil
}

func (f *fakeService) Rebuild(_ context.Context, userID string) (*domain.StoredProfile, error) {
	f.rebuilt = userID
	return &domain.StoredProfile{UserID: userID}, nil
}

func TestHandler_Process(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, logger.Nop())
	ctx := context.Background()

	msg := NewMessage(JobAnalyzeBatch, map[string]any{
		"user_id": "u1",
		"emails":  []map[string]any{{"id": "e1", "body": "hello"}},
	})
	require.NoError(t, h.Process(ctx, msg))
	assert.Equal(t, "u1", svc.batchUser)
	require.Len(t, svc.batchEmails, 1)
	assert.Equal(t, "hello", svc.batchEmails[0].Body)

	require.NoError(t, h.Process(ctx, NewMessage(JobRebuildProfile, map[string]any{"user_id": "u2"})))
	assert.Equal(t, "u2", svc.rebuilt)

	assert.NoError(t, h.Process(ctx, NewMessage("mail.sync", nil)))
}
