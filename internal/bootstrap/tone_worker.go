package bootstrap

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"tone_server/adapter/in/worker"
	"tone_server/config"
	"tone_server/internal/stream"
	"tone_server/pkg/logger"
)

// Worker consumes analysis and rebuild jobs from the Redis streams.
type Worker struct {
	consumer *stream.Consumer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

var ErrNoStream = errors.New("worker mode requires REDIS_URL")

func NewWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if deps.Stream == nil {
		cleanup()
		return nil, nil, ErrNoStream
	}

	zlog := componentLogger("worker")
	handler := worker.NewHandler(deps.Service, logger.Default())

	wctx, cancel := context.WithCancel(ctx)
	return &Worker{
		consumer: stream.NewConsumer(deps.Stream, handler, cfg.ConsumerName, zlog),
		deps:     deps,
		ctx:      wctx,
		cancel:   cancel,
		zlog:     zlog,
	}, cleanup, nil
}

// Start runs the consumer and blocks until Stop is called.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.consumer.Start(w.ctx)
		<-w.ctx.Done()
	}()

	w.zlog.Info().Msg("worker started")
	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.zlog.Info().Interface("metrics", w.deps.Pool.GetMetrics()).Msg("worker stopped")
}

func (w *Worker) GetMetrics() worker.PoolMetrics {
	return w.deps.Pool.GetMetrics()
}
