// Package openai adapts the OpenAI chat completions API to the pipeline's
// completion port.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"journal-insights/application/ports"

	"github.com/cenkalti/backoff/v4"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Options configures the provider.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds a single attempt.
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration

	HTTPClient *http.Client
}

// BreakerConfig holds configuration for the provider circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Provider calls the chat completions endpoint with a per-attempt timeout,
// bounded retries and a circuit breaker.
type Provider struct {
	client  *goopenai.Client
	opts    Options
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewProvider creates an OpenAI-backed completion provider
func NewProvider(opts Options, breakerCfg BreakerConfig, logger *zap.Logger) *Provider {
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}

	p := &Provider{
		client: goopenai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logger,
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= breakerCfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Rejections caused by the caller do not say anything about provider health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ports.ErrRateLimited) || isClientError(err)
		},
	})

	return p
}

// Complete implements ports.CompletionProvider
func (p *Provider) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.completeWithRetry(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("completion provider unavailable: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (p *Provider) completeWithRetry(ctx context.Context, req ports.CompletionRequest) (string, error) {
	chatReq := p.buildRequest(req)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.opts.RetryInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.opts.MaxRetries)), ctx)

	var content string
	attempt := 0
	operation := func() error {
		attempt++
		text, err := p.attempt(ctx, chatReq)
		if err == nil {
			content = text
			return nil
		}
		if !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("Completion attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, retry, notify); err != nil {
		return "", err
	}
	return content, nil
}

func (p *Provider) buildRequest(req ports.CompletionRequest) goopenai.ChatCompletionRequest {
	chatReq := goopenai.ChatCompletionRequest{
		Model: p.opts.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return chatReq
}

func (p *Provider) attempt(ctx context.Context, chatReq goopenai.ChatCompletionRequest) (string, error) {
	attemptCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(attemptCtx, chatReq)
	if err != nil {
		if statusCode(err) == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ports.ErrRateLimited, err)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ports.ErrEmptyCompletion
	}

	p.logger.Debug("Chat completion received",
		zap.String("model", resp.Model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}

// retryable reports whether another attempt could succeed. Timeouts of a
// single attempt are retried while the caller's context is still live.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ports.ErrRateLimited) || errors.Is(err, ports.ErrEmptyCompletion) {
		return false
	}
	return !isClientError(err)
}

func isClientError(err error) bool {
	code := statusCode(err)
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
