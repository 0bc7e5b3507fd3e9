package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Sourcing    SourcingConfig
	Safety      SafetyConfig
	Providers   ProvidersConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	OpenAI      OpenAIConfig
	OTEL        OTELConfig
}

// SourcingConfig holds search aggregation configuration
type SourcingConfig struct {
	// ProviderTimeoutSeconds bounds each provider call during a fan-out
	ProviderTimeoutSeconds float64
	// UseMockSearch is "always", "never", or "auto" (mock only when no real provider is configured)
	UseMockSearch string
	// DefaultLinkHost resolves relative provider URLs
	DefaultLinkHost string
}

// SafetyConfig holds safety gate configuration
type SafetyConfig struct {
	// ExtraSensitiveTerms are deployment-specific terms flagged for manual review
	ExtraSensitiveTerms []string
}

// ProvidersConfig holds per-provider API credentials
type ProvidersConfig struct {
	RainforestAPIKey   string
	SerpAPIKey         string
	SearchAPIKey       string
	GoogleCSEAPIKey    string
	GoogleCSECX        string
	EbayClientID       string
	EbayClientSecret   string
	EbayMarketplaceID  string
	AmazonAffiliateTag string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// OpenAIConfig holds embedding client configuration
type OpenAIConfig struct {
	APIKey              string
	EmbeddingModel      string
	EmbeddingDimensions int
	RateLimitRPM        int
	RateLimitBurst      int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Sourcing: SourcingConfig{
			ProviderTimeoutSeconds: getEnvAsFloat("SOURCING_PROVIDER_TIMEOUT_SECONDS", 8.0),
			UseMockSearch:          strings.ToLower(getEnv("USE_MOCK_SEARCH", "auto")),
			DefaultLinkHost:        getEnv("SOURCING_DEFAULT_LINK_HOST", "www.google.com"),
		},
		Safety: SafetyConfig{
			ExtraSensitiveTerms: getEnvAsList("SAFETY_SENSITIVE_TERMS"),
		},
		Providers: ProvidersConfig{
			RainforestAPIKey:   getEnv("RAINFOREST_API_KEY", ""),
			SerpAPIKey:         getEnv("SERPAPI_API_KEY", ""),
			SearchAPIKey:       getEnv("SEARCHAPI_API_KEY", ""),
			GoogleCSEAPIKey:    getEnv("GOOGLE_CSE_API_KEY", ""),
			GoogleCSECX:        getEnv("GOOGLE_CSE_CX", ""),
			EbayClientID:       getEnv("EBAY_CLIENT_ID", ""),
			EbayClientSecret:   getEnv("EBAY_CLIENT_SECRET", ""),
			EbayMarketplaceID:  getEnv("EBAY_MARKETPLACE_ID", "EBAY-US"),
			AmazonAffiliateTag: getEnv("AMAZON_AFFILIATE_TAG", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "dealsource"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
			RateLimitRPM:        getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst:      getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "dealsource"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
