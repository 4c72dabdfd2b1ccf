package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tone_server/adapter/in/worker"
	"tone_server/core/domain"
	"tone_server/core/port/out"
)

type capturePublisher struct {
	stream string
	data   []byte
}

func (c *capturePublisher) Publish(_ context.Context, stream string, data any) (string, error) {
	c.stream = stream
	b, err := json.Marshal(data)
	c.data = b
	return "1-0", err
}

type captureProcessor struct {
	msgs []*worker.Message
	err  error
}

func (c *captureProcessor) Process(_ context.Context, msg *worker.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestProducer_AnalysisJobRoundTrip(t *testing.T) {
	pub := &capturePublisher{}
	sent := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	job := &out.AnalysisJob{
		ID:     "job-1",
		UserID: "u1",
		Emails: []domain.EmailInput{
			{ID: "e1", Subject: "Hi", Body: "Dear team,", SentAt: sent},
			{ID: "e2", Body: "thanks!"},
		},
		CreatedAt: sent,
	}

	require.NoError(t, NewProducer(pub).PublishAnalysisJob(context.Background(), job))
	assert.Equal(t, StreamAnalysis, pub.stream)

	msg, err := DecodeJob(pub.data)
	require.NoError(t, err)
	assert.Equal(t, "job-1", msg.ID)
	assert.Equal(t, worker.JobAnalyzeBatch, msg.Type)

	payload, err := worker.ParsePayload[worker.AnalyzeBatchPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "u1", payload.UserID)
	require.Len(t, payload.Emails, 2)
	assert.Equal(t, "Dear team,", payload.Emails[0].Body)
	assert.True(t, sent.Equal(payload.Emails[0].SentAt))
}

func TestProducer_RebuildJob(t *testing.T) {
	pub := &capturePublisher{}

	require.NoError(t, NewProducer(pub).PublishRebuildJob(context.Background(), &out.RebuildJob{ID: "job-2", UserID: "u9"}))
	assert.Equal(t, StreamProfile, pub.stream)

	msg, err := DecodeJob(pub.data)
	require.NoError(t, err)
	payload, err := worker.ParsePayload[worker.RebuildProfilePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, worker.JobRebuildProfile, msg.Type)
	assert.Equal(t, "u9", payload.UserID)
}

func TestHandleWith(t *testing.T) {
	proc := &captureProcessor{}
	handle := HandleWith(context.Background(), proc)

	require.NoError(t, handle("1-0", []byte(`{"id":"j","type":"tone.analyze_batch","payload":{"user_id":"u"}}`)))
	require.Len(t, proc.msgs, 1)
	assert.Equal(t, "j", proc.msgs[0].ID)

	assert.Error(t, handle("2-0", []byte(`not json`)))

	proc.err = errors.New("service down")
	assert.ErrorIs(t, handle("3-0", []byte(`{"id":"k","type":"x"}`)), proc.err)
}
