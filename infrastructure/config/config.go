package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache store backends
const (
	CacheBackendDynamoDB = "dynamodb"
	CacheBackendSupabase = "supabase"
	CacheBackendMemory   = "memory"
)

// Identity providers
const (
	AuthProviderSupabase = "supabase"
	AuthProviderJWT      = "jwt"
)

// Metrics backends
const (
	MetricsBackendCloudWatch = "cloudwatch"
	MetricsBackendPrometheus = "prometheus"
	MetricsBackendNone       = "none"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Completion provider
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float32
	OpenAIMaxTokens   int
	OpenAITimeout     time.Duration
	OpenAIMaxRetries  int

	// Insight pipeline
	InsightCategory  string
	MaxContentChars  int
	CacheTTL         time.Duration
	CacheStaleAfter  time.Duration
	GenerationLimit  int
	GenerationWindow time.Duration

	// Cache store
	CacheBackend          string
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseInsightsTable string

	// Authentication
	AuthProvider string
	JWTSecret    string
	JWTIssuer    string
	JWTAudience  []string

	// Logging
	LogLevel string

	// Observability
	MetricsBackend   string
	MetricsNamespace string
	EnableTracing    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "journal-insights")),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature: getEnvFloat32("OPENAI_TEMPERATURE", 0.7),
		OpenAIMaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 2000),
		OpenAITimeout:     getEnvDuration("OPENAI_TIMEOUT", 45*time.Second),
		OpenAIMaxRetries:  getEnvInt("OPENAI_MAX_RETRIES", 1),

		InsightCategory:  getEnv("INSIGHT_CATEGORY", "journal_insights"),
		MaxContentChars:  getEnvInt("MAX_CONTENT_CHARS", 1000),
		CacheTTL:         getEnvDuration("CACHE_TTL", 168*time.Hour),
		CacheStaleAfter:  getEnvDuration("CACHE_STALE_AFTER", 24*time.Hour),
		GenerationLimit:  getEnvInt("GENERATION_LIMIT_PER_HOUR", 0),
		GenerationWindow: time.Hour,

		CacheBackend:          getEnv("CACHE_BACKEND", CacheBackendDynamoDB),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseInsightsTable: getEnv("SUPABASE_INSIGHTS_TABLE", "ai_insights"),

		AuthProvider: getEnv("AUTH_PROVIDER", AuthProviderSupabase),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", ""),
		JWTAudience:  getEnvList("JWT_AUDIENCE", []string{"authenticated"}),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsBackend:   getEnv("METRICS_BACKEND", MetricsBackendNone),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "JournalInsights"),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.MaxContentChars < 1 {
		return fmt.Errorf("MAX_CONTENT_CHARS must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.OpenAIMaxRetries < 0 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must not be negative")
	}

	switch c.CacheBackend {
	case CacheBackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb cache backend")
		}
	case CacheBackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase cache backend")
		}
	case CacheBackendMemory:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	switch c.AuthProvider {
	case AuthProviderSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for supabase auth")
		}
	case AuthProviderJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for jwt auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	switch c.MetricsBackend {
	case MetricsBackendCloudWatch, MetricsBackendPrometheus, MetricsBackendNone:
	default:
		return fmt.Errorf("unknown METRICS_BACKEND %q", c.MetricsBackend)
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings such as "45s" or "168h"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
