package insights

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"journal-insights/application/ports"
	"journal-insights/domain/insight"
	apperrors "journal-insights/pkg/errors"
	"journal-insights/pkg/observability"

	"go.uber.org/zap"
)

// SynthesizerOptions are the sampling parameters for generation.
type SynthesizerOptions struct {
	Temperature     float32
	MaxTokens       int
	MaxContentChars int
}

// Synthesizer turns journal entries into a raw model completion.
type Synthesizer struct {
	provider ports.CompletionProvider
	opts     SynthesizerOptions
	tracer   *observability.Tracer
	logger   *zap.Logger
}

// NewSynthesizer creates a synthesizer
func NewSynthesizer(provider ports.CompletionProvider, opts SynthesizerOptions, tracer *observability.Tracer, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		opts:     opts,
		tracer:   tracer,
		logger:   logger,
	}
}

// Synthesize asks the provider for an insight over entries and returns the
// raw completion text.
func (s *Synthesizer) Synthesize(ctx context.Context, entries []insight.JournalEntry) (string, error) {
	userPrompt, err := buildUserPrompt(entries, s.opts.MaxContentChars)
	if err != nil {
		return "", apperrors.NewInternalError("failed to build prompt").WithCause(err)
	}

	var raw string
	err = s.tracer.TraceFunction(ctx, "insights.synthesize", func(ctx context.Context) error {
		s.tracer.AddAnnotation(ctx, "entries", strconv.Itoa(len(entries)))

		var completeErr error
		raw, completeErr = s.provider.Complete(ctx, ports.CompletionRequest{
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			Temperature:  s.opts.Temperature,
			MaxTokens:    s.opts.MaxTokens,
			JSONMode:     true,
		})
		return completeErr
	})

	if err == nil && strings.TrimSpace(raw) == "" {
		err = ports.ErrEmptyCompletion
	}

	switch {
	case err == nil:
		return raw, nil
	case errors.Is(err, ports.ErrRateLimited):
		s.logger.Warn("Completion provider rate limited request", zap.Error(err))
		return "", apperrors.NewRateLimitError("AI service is busy. Please try again shortly.", apperrors.DefaultRetryAfterSeconds).WithCause(err)
	case errors.Is(err, ports.ErrEmptyCompletion):
		return "", apperrors.NewInvalidResponseError("AI service returned an empty response").WithCause(err)
	default:
		return "", apperrors.NewExternalError("AI service error: "+truncateRunes(err.Error(), 120), err)
	}
}
