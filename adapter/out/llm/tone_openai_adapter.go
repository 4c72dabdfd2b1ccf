// Package llm adapts an OpenAI-compatible chat completion API to out.LLMClient.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"tone_server/core/port/out"
)

var _ out.LLMClient = (*OpenAIAdapter)(nil)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
)

var ErrEmptyCompletion = errors.New("llm returned no choices")

type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// OpenAIAdapter calls the chat completion endpoint behind a circuit breaker.
type OpenAIAdapter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	cb          *gobreaker.CircuitBreaker
	log         zerolog.Logger
}

func NewOpenAIAdapter(cfg ClientConfig) *OpenAIAdapter {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	l := log.With().Str("component", "llm").Str("model", cfg.Model).Logger()

	settings := gobreaker.Settings{
		Name:        "llm-chat",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &OpenAIAdapter{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
		cb:          gobreaker.NewCircuitBreaker(settings),
		log:         l,
	}
}

// CompleteChat sends messages and returns the first choice's content.
func (a *OpenAIAdapter) CompleteChat(ctx context.Context, messages []out.ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}

	start := time.Now()
	result, err := a.cb.Execute(func() (interface{}, error) {
		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyCompletion
		}
		a.log.Debug().
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Dur("took", time.Since(start)).
			Msg("chat completion")
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// IsOpen reports whether the breaker is rejecting calls.
func (a *OpenAIAdapter) IsOpen() bool {
	return a.cb.State() == gobreaker.StateOpen
}

func toOpenAIMessages(messages []out.ChatMessage) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case out.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case out.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return converted
}
