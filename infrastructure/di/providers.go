package di

import (
	"context"
	"fmt"
	"net/http"

	"journal-insights/application/insights"
	"journal-insights/application/ports"
	"journal-insights/domain/insight"
	"journal-insights/infrastructure/config"
	"journal-insights/infrastructure/llm/openai"
	"journal-insights/infrastructure/messaging/eventbridge"
	"journal-insights/infrastructure/persistence/dynamodb"
	"journal-insights/infrastructure/persistence/memory"
	supabasestore "journal-insights/infrastructure/persistence/supabase"
	"journal-insights/interfaces/http/rest"
	"journal-insights/interfaces/http/rest/handlers"
	"journal-insights/pkg/auth"
	apperrors "journal-insights/pkg/errors"
	"journal-insights/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideSupabaseClient creates a Supabase client, or nil when neither the
// cache nor auth uses Supabase.
func ProvideSupabaseClient(cfg *config.Config) (*supabase.Client, error) {
	if cfg.CacheBackend != config.CacheBackendSupabase && cfg.AuthProvider != config.AuthProviderSupabase {
		return nil, nil
	}
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return client, nil
}

// ProvideInsightCache selects the cache store backend
func ProvideInsightCache(
	cfg *config.Config,
	ddb *awsdynamodb.Client,
	sb *supabase.Client,
	logger *zap.Logger,
) (ports.InsightCache, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendDynamoDB:
		return dynamodb.NewInsightCacheRepository(ddb, cfg.DynamoDBTable, logger), nil
	case config.CacheBackendSupabase:
		return supabasestore.NewInsightCacheRepository(sb, cfg.SupabaseInsightsTable, logger), nil
	case config.CacheBackendMemory:
		logger.Warn("Using in-memory insight cache, entries do not survive restarts")
		return memory.NewInsightCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// ProvideGenerationThrottle creates the per-user generation limit, or nil
// when no limit is configured. The DynamoDB limiter is used whenever a
// table is available so the limit holds across Lambda instances.
func ProvideGenerationThrottle(cfg *config.Config, ddb *awsdynamodb.Client) ports.GenerationThrottle {
	if cfg.GenerationLimit <= 0 {
		return nil
	}
	if cfg.CacheBackend == config.CacheBackendDynamoDB {
		return dynamodb.NewGenerationThrottle(ddb, cfg.DynamoDBTable, cfg.GenerationLimit, cfg.GenerationWindow)
	}
	return memory.NewSlidingWindowThrottle(cfg.GenerationLimit, cfg.GenerationWindow)
}

// ProvideIdentityResolver selects how bearer tokens are verified
func ProvideIdentityResolver(cfg *config.Config, sb *supabase.Client) (auth.IdentityResolver, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderSupabase:
		return auth.NewSupabaseResolver(sb), nil
	case config.AuthProviderJWT:
		validator, err := auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "HS256",
			SecretKey:     cfg.JWTSecret,
			Issuer:        cfg.JWTIssuer,
			Audience:      cfg.JWTAudience,
		})
		if err != nil {
			return nil, err
		}
		return auth.NewJWTResolver(validator), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
	}
}

// ProvideCompletionProvider creates the OpenAI completion provider
func ProvideCompletionProvider(cfg *config.Config, logger *zap.Logger) ports.CompletionProvider {
	return openai.NewProvider(openai.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIMaxRetries,
	}, openai.DefaultBreakerConfig(), logger)
}

// ProvideEventBus creates the event bus, or nil when no bus is configured
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if cfg.EventBusName == "" {
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvidePrometheusRecorder creates the Prometheus recorder when selected
func ProvidePrometheusRecorder(cfg *config.Config) *observability.PrometheusRecorder {
	if cfg.MetricsBackend != config.MetricsBackendPrometheus {
		return nil
	}
	return observability.NewPrometheusRecorder(cfg.MetricsNamespace)
}

// ProvideMetrics selects the metrics backend
func ProvideMetrics(
	cfg *config.Config,
	client *awscloudwatch.Client,
	prom *observability.PrometheusRecorder,
	logger *zap.Logger,
) observability.Recorder {
	switch cfg.MetricsBackend {
	case config.MetricsBackendCloudWatch:
		return observability.NewCloudWatchRecorder(fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment), client, logger)
	case config.MetricsBackendPrometheus:
		return prom
	default:
		return observability.NopRecorder{}
	}
}

// ProvideMetricsHandler exposes Prometheus metrics, or nil for other backends
func ProvideMetricsHandler(prom *observability.PrometheusRecorder) http.Handler {
	if prom == nil {
		return nil
	}
	return promhttp.HandlerFor(prom.Registry(), promhttp.HandlerOpts{})
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(cfg.EnableTracing)
}

// ProvideCacheReader creates the cache reader
func ProvideCacheReader(cfg *config.Config, cache ports.InsightCache, metrics observability.Recorder, logger *zap.Logger) *insights.CacheReader {
	return insights.NewCacheReader(cache, cfg.CacheStaleAfter, metrics, logger)
}

// ProvideCacheWriter creates the cache writer
func ProvideCacheWriter(cfg *config.Config, cache ports.InsightCache, metrics observability.Recorder, logger *zap.Logger) *insights.CacheWriter {
	return insights.NewCacheWriter(cache, cfg.CacheTTL, metrics, logger)
}

// ProvideSynthesizer creates the synthesizer
func ProvideSynthesizer(cfg *config.Config, provider ports.CompletionProvider, tracer *observability.Tracer, logger *zap.Logger) *insights.Synthesizer {
	return insights.NewSynthesizer(provider, insights.SynthesizerOptions{
		Temperature:     cfg.OpenAITemperature,
		MaxTokens:       cfg.OpenAIMaxTokens,
		MaxContentChars: cfg.MaxContentChars,
	}, tracer, logger)
}

// ProvideInsightService creates the pipeline service
func ProvideInsightService(
	cfg *config.Config,
	reader *insights.CacheReader,
	synthesizer *insights.Synthesizer,
	repairer *insights.Repairer,
	writer *insights.CacheWriter,
	assembler *insights.Assembler,
	throttle ports.GenerationThrottle,
	eventBus ports.EventBus,
	metrics observability.Recorder,
	logger *zap.Logger,
) *insights.Service {
	category := cfg.InsightCategory
	if category == "" {
		category = insight.DefaultCategory
	}
	return insights.NewService(category, reader, synthesizer, repairer, writer, assembler, throttle, eventBus, metrics, logger)
}

// ProvideInsightHandler creates the HTTP handler
func ProvideInsightHandler(
	gate *insights.RequestGate,
	service *insights.Service,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *handlers.InsightHandler {
	return handlers.NewInsightHandler(gate, service, errorHandler, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	handler *handlers.InsightHandler,
	resolver auth.IdentityResolver,
	errorHandler *apperrors.ErrorHandler,
	metricsHandler http.Handler,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(handler, resolver, errorHandler, metricsHandler, logger)
}
