package stream

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"tone_server/adapter/in/worker"
)

// Processor handles one decoded job.
type Processor interface {
	Process(ctx context.Context, msg *worker.Message) error
}

type Consumer struct {
	stream    *RedisStream
	processor Processor
	name      string
	log       zerolog.Logger
}

func NewConsumer(stream *RedisStream, processor Processor, name string, log zerolog.Logger) *Consumer {
	return &Consumer{
		stream:    stream,
		processor: processor,
		name:      name,
		log:       log.With().Str("component", "stream_consumer").Str("consumer", name).Logger(),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	streams := []string{StreamAnalysis, StreamProfile}
	for _, s := range streams {
		if err := c.stream.CreateGroup(ctx, s); err != nil {
			c.log.Error().Err(err).Str("stream", s).Msg("failed to create consumer group")
		}
	}

	for _, s := range streams {
		go c.stream.Consume(ctx, s, c.name, HandleWith(ctx, c.processor))
	}
	c.log.Info().Strs("streams", streams).Msg("stream consumer started")
}

// HandleWith adapts a Processor to a stream Handler.
func HandleWith(ctx context.Context, processor Processor) Handler {
	return func(id string, data []byte) error {
		msg, err := DecodeJob(data)
		if err != nil {
			return fmt.Errorf("entry %s: %w", id, err)
		}
		return processor.Process(ctx, msg)
	}
}

// DecodeJob turns a stream entry into a worker message.
func DecodeJob(data []byte) (*worker.Message, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	return &worker.Message{
		ID:        job.ID,
		Type:      job.Type,
		Payload:   job.Payload,
		CreatedAt: job.CreatedAt,
	}, nil
}
