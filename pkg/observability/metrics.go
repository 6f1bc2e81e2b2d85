package observability

import (
	"context"
	"time"
)

// Cache lookup outcomes
const (
	LookupHit    = "hit"
	LookupStale  = "stale"
	LookupMiss   = "miss"
	LookupError  = "error"
	LookupBypass = "bypass"
)

// Recorder captures pipeline metrics. Implementations must never fail the
// request they are measuring.
type Recorder interface {
	RecordCacheLookup(ctx context.Context, outcome string)
	RecordCacheWrite(ctx context.Context, err error)
	RecordGeneration(ctx context.Context, code string, duration time.Duration)
}

// NopRecorder discards all metrics
type NopRecorder struct{}

func (NopRecorder) RecordCacheLookup(context.Context, string)               {}
func (NopRecorder) RecordCacheWrite(context.Context, error)                 {}
func (NopRecorder) RecordGeneration(context.Context, string, time.Duration) {}
