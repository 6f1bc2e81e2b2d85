package di

import (
	"journal-insights/application/insights"
	"journal-insights/application/ports"
	"journal-insights/infrastructure/config"
	"journal-insights/interfaces/http/rest"
	"journal-insights/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Cache    ports.InsightCache
	Throttle ports.GenerationThrottle
	Service  *insights.Service
	Metrics  observability.Recorder
	Router   *rest.Router
}
