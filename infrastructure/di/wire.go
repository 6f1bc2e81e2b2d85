//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"journal-insights/application/insights"
	"journal-insights/infrastructure/config"
	apperrors "journal-insights/pkg/errors"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideSupabaseClient,
	ProvideInsightCache,
	ProvideGenerationThrottle,
	ProvideIdentityResolver,
	ProvideCompletionProvider,
	ProvideEventBus,
	ProvidePrometheusRecorder,
	ProvideMetrics,
	ProvideMetricsHandler,
	ProvideTracer,
	ProvideCacheReader,
	ProvideCacheWriter,
	ProvideSynthesizer,
	insights.NewRepairer,
	insights.NewAssembler,
	insights.NewRequestGate,
	ProvideInsightService,
	apperrors.NewErrorHandler,
	ProvideInsightHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
