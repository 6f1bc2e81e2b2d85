// Package insights implements the journal insight pipeline: request
// validation, cache lookup, synthesis, repair, cache write and response
// assembly.
package insights

import (
	"context"
	"math"
	"time"

	"journal-insights/application/ports"
	"journal-insights/domain/events"
	"journal-insights/domain/insight"
	apperrors "journal-insights/pkg/errors"
	"journal-insights/pkg/observability"

	"go.uber.org/zap"
)

const generationOK = "OK"

// Service runs the insight pipeline for one validated request.
type Service struct {
	category    string
	reader      *CacheReader
	synthesizer *Synthesizer
	repairer    *Repairer
	writer      *CacheWriter
	assembler   *Assembler
	throttle    ports.GenerationThrottle
	eventBus    ports.EventBus
	metrics     observability.Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates the pipeline. throttle and eventBus may be nil.
func NewService(
	category string,
	reader *CacheReader,
	synthesizer *Synthesizer,
	repairer *Repairer,
	writer *CacheWriter,
	assembler *Assembler,
	throttle ports.GenerationThrottle,
	eventBus ports.EventBus,
	metrics observability.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		category:    category,
		reader:      reader,
		synthesizer: synthesizer,
		repairer:    repairer,
		writer:      writer,
		assembler:   assembler,
		throttle:    throttle,
		eventBus:    eventBus,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate returns a cached insight when one is available, otherwise
// synthesizes, repairs and caches a fresh one.
func (s *Service) Generate(ctx context.Context, userID string, req *InsightRequest) (*insight.Insight, error) {
	logger := s.logger.With(
		zap.String("user_id", userID),
		zap.String("category", s.category),
		zap.Int("entries", len(req.Entries)),
	)

	if req.ForceRefresh {
		logger.Info("Force refresh requested, skipping cache")
		s.metrics.RecordCacheLookup(ctx, observability.LookupBypass)
	} else {
		lookup := s.reader.Read(ctx, userID, s.category)
		if lookup.Hit {
			logger.Info("Returning cached insight", zap.Bool("stale", lookup.Stale))
			return s.assembler.FromCache(lookup.Record), nil
		}
	}

	if err := s.checkThrottle(ctx, userID); err != nil {
		return nil, err
	}

	start := s.now()

	raw, err := s.synthesizer.Synthesize(ctx, req.Entries)
	if err != nil {
		s.recordFailure(ctx, err, start)
		return nil, err
	}

	content, err := s.repairer.Repair(raw)
	if err != nil {
		s.recordFailure(ctx, err, start)
		return nil, err
	}

	generatedAt := s.now().UTC()

	// A failed write is logged by the writer and never fails the request
	written := s.writer.Write(ctx, userID, s.category, *content, len(req.Entries), generatedAt)

	s.metrics.RecordGeneration(ctx, generationOK, s.now().Sub(start))
	logger.Info("Generated fresh insight",
		zap.Int("themes", len(content.Themes)),
		zap.Int("annotations", len(content.Annotations)),
		zap.Bool("cached", written.Stored),
	)

	s.publish(ctx, events.NewInsightGenerated(
		userID,
		s.category,
		len(req.Entries),
		len(content.Themes),
		len(content.Annotations),
		req.ForceRefresh,
		written.Stored,
		generatedAt,
	))

	return s.assembler.Fresh(*content, len(req.Entries), generatedAt), nil
}

// checkThrottle enforces the per-user generation limit. Limiter failures
// let the request through.
func (s *Service) checkThrottle(ctx context.Context, userID string) error {
	if s.throttle == nil {
		return nil
	}

	allowed, resetIn, err := s.throttle.Allow(ctx, userID)
	if err != nil {
		s.logger.Warn("Generation throttle unavailable, allowing request",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	if allowed {
		return nil
	}

	retryAfter := int(math.Ceil(resetIn.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return apperrors.NewRateLimitError("Too many insight requests. Please try again later.", retryAfter)
}

func (s *Service) recordFailure(ctx context.Context, err error, start time.Time) {
	s.metrics.RecordGeneration(ctx, apperrors.Normalize(err).Code, s.now().Sub(start))
}

func (s *Service) publish(ctx context.Context, event events.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
