package stream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StreamAnalysis = "tone:analysis"
	StreamProfile  = "tone:profile"
)

// Handler processes one stream entry. Entries are acknowledged only when it returns nil.
type Handler func(id string, data []byte) error

type RedisStream struct {
	client *redis.Client
	group  string
	block  time.Duration
	count  int64
	log    zerolog.Logger
}

func NewRedisStream(client *redis.Client, group string, log zerolog.Logger) *RedisStream {
	return &RedisStream{
		client: client,
		group:  group,
		block:  5 * time.Second,
		count:  10,
		log:    log.With().Str("component", "redis_stream").Logger(),
	}
}

// WithRead overrides the XREADGROUP block time and batch count. Zero values keep the defaults.
func (s *RedisStream) WithRead(block time.Duration, count int64) *RedisStream {
	if block > 0 {
		s.block = block
	}
	if count > 0 {
		s.count = count
	}
	return s
}

func (s *RedisStream) CreateGroup(ctx context.Context, stream string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (s *RedisStream) Publish(ctx context.Context, stream string, data any) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"data": jsonData},
	}).Result()
}

// Consume reads the stream as consumer until ctx is done.
func (s *RedisStream) Consume(ctx context.Context, stream, consumer string, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    s.count,
			Block:    s.block,
		}).Result()

		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.log.Warn().Err(err).Str("stream", stream).Msg("stream read failed")
				time.Sleep(time.Second)
			}
			continue
		}

		for _, st := range streams {
			for _, msg := range st.Messages {
				data, ok := msg.Values["data"].(string)
				if !ok {
					s.log.Warn().Str("id", msg.ID).Msg("stream entry without data field")
					continue
				}

				if err := handler(msg.ID, []byte(data)); err != nil {
					s.log.Error().Err(err).Str("id", msg.ID).Str("stream", st.Stream).Msg("handler failed")
					continue
				}

				if err := s.Ack(ctx, st.Stream, msg.ID); err != nil {
					s.log.Warn().Err(err).Str("id", msg.ID).Msg("ack failed")
				}
			}
		}
	}
}

func (s *RedisStream) Ack(ctx context.Context, stream, id string) error {
	return s.client.XAck(ctx, stream, s.group, id).Err()
}

func (s *RedisStream) Pending(ctx context.Context, stream string) (int64, error) {
	info, err := s.client.XPending(ctx, stream, s.group).Result()
	if err != nil {
		return 0, err
	}
	return info.Count, nil
}
