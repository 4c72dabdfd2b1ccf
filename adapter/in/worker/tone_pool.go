package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"

	"tone_server/core/domain"
	"tone_server/core/port/in"
	"tone_server/core/port/out"
	"tone_server/pkg/apperr"
	"tone_server/pkg/metrics"
)

var _ out.BatchAnalyzer = (*Pool)(nil)

// PoolConfig holds batch analyzer configuration.
type PoolConfig struct {
	Workers        int           // concurrent analyses per batch
	BatchSize      int           // items handed to a worker at once
	WorkerChanSize int           // worker channel buffer
	JobTimeout     time.Duration // per-email analysis timeout
}

// DefaultPoolConfig returns default pool configuration.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers:        8,
		BatchSize:      4,
		WorkerChanSize: 64,
		JobTimeout:     30 * time.Second,
	}
}

// PoolMetrics holds pool counters.
type PoolMetrics struct {
	EmailsProcessed int64 `json:"emails_processed"`
	EmailsFailed    int64 `json:"emails_failed"`
	EmailsTimedOut  int64 `json:"emails_timed_out"`
	Batches         int64 `json:"batches"`
	AvgProcessTime  int64 `json:"avg_process_time_ms"`
}

// Pool fans a batch of emails out over a go-pkgz/pool worker group and waits
// for every analysis before returning. Outcomes keep input order.
type Pool struct {
	analyzer in.EmailAnalyzer
	config   *PoolConfig
	latency  *metrics.LatencyTracker
	metrics  *PoolMetrics
	log      zerolog.Logger
}

// emailWorker implements pool.Worker over indexes into one batch.
type emailWorker struct {
	pool     *Pool
	emails   []domain.EmailInput
	outcomes []domain.AnalysisOutcome
}

// Do implements pool.Worker interface.
func (w *emailWorker) Do(ctx context.Context, idx int) error {
	w.outcomes[idx] = w.pool.process(ctx, w.emails[idx])
	return nil
}

// NewPool creates a batch analyzer.
func NewPool(analyzer in.EmailAnalyzer, config *PoolConfig, log zerolog.Logger) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	return &Pool{
		analyzer: analyzer,
		config:   config,
		latency:  metrics.NewLatencyTracker(1000),
		metrics:  &PoolMetrics{},
		log:      log.With().Str("component", "batch_pool").Logger(),
	}
}

// AnalyzeAll analyzes every email in parallel and returns one outcome per email.
func (p *Pool) AnalyzeAll(ctx context.Context, emails []domain.EmailInput) ([]domain.AnalysisOutcome, error) {
	outcomes := make([]domain.AnalysisOutcome, len(emails))
	if len(emails) == 0 {
		return outcomes, nil
	}
	start := time.Now()

	workers := p.config.Workers
	if workers > len(emails) {
		workers = len(emails)
	}

	worker := &emailWorker{pool: p, emails: emails, outcomes: outcomes}
	group := pool.New[int](workers, worker).
		WithBatchSize(p.config.BatchSize).
		WithWorkerChanSize(p.config.WorkerChanSize).
		WithContinueOnError()

	if err := group.Go(ctx); err != nil {
		return nil, fmt.Errorf("start batch pool: %w", err)
	}
	for i := range emails {
		group.Submit(i)
	}
	if err := group.Close(ctx); err != nil {
		return nil, fmt.Errorf("batch pool: %w", err)
	}

	atomic.AddInt64(&p.metrics.Batches, 1)
	p.log.Debug().
		Int("emails", len(emails)).
		Int("workers", workers).
		Dur("took", time.Since(start)).
		Msg("batch analyzed")

	return outcomes, nil
}

// process analyzes one email with the configured timeout.
func (p *Pool) process(ctx context.Context, email domain.EmailInput) domain.AnalysisOutcome {
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	resultCh := make(chan domain.AnalysisOutcome, 1)
	go func() {
		resultCh <- p.analyzer.AnalyzeEmail(email)
	}()

	var outcome domain.AnalysisOutcome
	select {
	case outcome = <-resultCh:
	case <-jobCtx.Done():
		appErr := apperr.Timeout("email analysis")
		if jobCtx.Err() != context.DeadlineExceeded {
			appErr = apperr.InternalWithError(jobCtx.Err())
		}
		outcome = domain.AnalysisOutcome{EmailID: email.ID, Error: appErr.Error(), Code: appErr.Code}
		atomic.AddInt64(&p.metrics.EmailsTimedOut, 1)
		p.log.Warn().
			Str("email_id", email.ID).
			Dur("timeout", p.config.JobTimeout).
			Msg("email analysis abandoned")
	}

	elapsed := time.Since(start)
	p.latency.Record(elapsed)
	p.updateAvgProcessTime(elapsed.Milliseconds())

	if outcome.Failed() {
		atomic.AddInt64(&p.metrics.EmailsFailed, 1)
	} else {
		atomic.AddInt64(&p.metrics.EmailsProcessed, 1)
	}
	return outcome
}

// updateAvgProcessTime updates the moving average processing time.
func (p *Pool) updateAvgProcessTime(elapsed int64) {
	current := atomic.LoadInt64(&p.metrics.AvgProcessTime)
	if current == 0 {
		atomic.StoreInt64(&p.metrics.AvgProcessTime, elapsed)
		return
	}
	atomic.StoreInt64(&p.metrics.AvgProcessTime, (current*9+elapsed)/10)
}

// GetMetrics returns current pool metrics.
func (p *Pool) GetMetrics() PoolMetrics {
	return PoolMetrics{
		EmailsProcessed: atomic.LoadInt64(&p.metrics.EmailsProcessed),
		EmailsFailed:    atomic.LoadInt64(&p.metrics.EmailsFailed),
		EmailsTimedOut:  atomic.LoadInt64(&p.metrics.EmailsTimedOut),
		Batches:         atomic.LoadInt64(&p.metrics.Batches),
		AvgProcessTime:  atomic.LoadInt64(&p.metrics.AvgProcessTime),
	}
}

// Latency returns per-email analysis latency percentiles.
func (p *Pool) Latency() metrics.LatencyStats {
	return p.latency.Stats()
}
