package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kyrelabs/dealsource/internal/adapters/cache"
	"github.com/kyrelabs/dealsource/internal/adapters/database"
	"github.com/kyrelabs/dealsource/internal/adapters/events"
	"github.com/kyrelabs/dealsource/internal/adapters/providers/shopping"
	"github.com/kyrelabs/dealsource/internal/adapters/providers/vendors"
	"github.com/kyrelabs/dealsource/internal/application/services"
	"github.com/kyrelabs/dealsource/internal/domain/entities"
	domainproviders "github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/internal/infrastructure/clients/openai"
	"github.com/kyrelabs/dealsource/internal/infrastructure/clients/postgres"
	"github.com/kyrelabs/dealsource/internal/infrastructure/clients/redis"
	"github.com/kyrelabs/dealsource/internal/infrastructure/clients/typesense"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
	"github.com/kyrelabs/dealsource/pkg/config"
)

func main() {
	var providersFlag string
	var userID string
	var vendorQuery string
	var brand string
	var category string
	var condition string
	var minPrice float64
	var maxPrice float64
	var gl string
	var hl string
	flag.StringVar(&providersFlag, "providers", "", "comma-separated provider ids to use (default: all configured)")
	flag.StringVar(&userID, "user", "", "user id for preference-aware ranking")
	flag.StringVar(&vendorQuery, "vendor-query", "", "clean product phrase for the vendor directory")
	flag.StringVar(&brand, "brand", "", "brand constraint")
	flag.StringVar(&category, "category", "", "product category")
	flag.StringVar(&condition, "condition", "", "condition: new, used, refurbished, any")
	flag.Float64Var(&minPrice, "min-price", 0, "minimum price in USD")
	flag.Float64Var(&maxPrice, "max-price", 0, "maximum price in USD")
	flag.StringVar(&gl, "gl", "", "country code for localized providers")
	flag.StringVar(&hl, "hl", "", "language code for localized providers")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: search [flags] <query terms...>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("dealsource", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			if _, err := observability.InitMetrics(); err != nil {
				log.Printf("Warning: Failed to initialize metrics: %v", err)
			}
		}
	}

	// Redis backs the embedding cache and the analytics event bus. The
	// search works without it.
	var cacheProvider domainproviders.CacheProvider
	var eventBus domainproviders.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Redis unavailable, continuing without cache and events: %v", err)
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
	}

	analytics := services.NewSearchAnalyticsService(eventBus)
	safety := services.NewSafetyService(cfg.Safety.ExtraSensitiveTerms)

	check := safety.CheckSafety(query)
	if err := check.Err(); err != nil {
		analytics.PublishSearchBlocked(ctx, uuid.New(), query, check.Reason)
		log.Printf("Search blocked: %v", err)
		fmt.Fprintln(os.Stderr, check.Reason)
		time.Sleep(200 * time.Millisecond)
		os.Exit(1)
	}
	if check.Status == services.SafetyStatusNeedsReview {
		log.Printf("Warning: %s", check.Reason)
	}

	// Postgres backs learned preferences. Without it ranking is neutral.
	var preferences *services.PreferenceService
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Printf("Warning: PostgreSQL unavailable, ranking without preferences: %v", err)
	} else {
		defer pgClient.Close()
		preferences = services.NewPreferenceService(database.NewPreferenceAdapter(pgClient))
	}

	taxonomy := services.NewTaxonomyService()
	sourcing := services.NewSourcingService(
		&cfg.Sourcing,
		services.NewQueryBuilderService(taxonomy),
		services.NewResultNormalizerService(),
		services.NewResultFilterService(),
		services.NewSearchRankingService(services.DefaultScoringWeights()),
		preferences,
		analytics,
	)
	registerProviders(ctx, cfg, sourcing, cacheProvider)

	if len(sourcing.ProviderIDs()) == 0 {
		log.Fatal("No search providers configured. Set provider API keys or USE_MOCK_SEARCH=always.")
	}

	intent := &entities.SearchIntent{
		ProductCategory: category,
		Brand:           brand,
		Condition:       entities.ConditionType(condition),
		RawInput:        query,
		Source:          entities.IntentSourceHeuristic,
	}
	if minPrice > 0 {
		intent.MinPrice = &minPrice
	}
	if maxPrice > 0 {
		intent.MaxPrice = &maxPrice
	}

	opts := services.SearchAllOptions{
		VendorQuery: vendorQuery,
		UserID:      userID,
		GL:          gl,
		HL:          hl,
	}
	if providersFlag != "" {
		opts.Providers = strings.Split(providersFlag, ",")
	}

	response, err := sourcing.SearchAllWithStatus(ctx, intent, opts)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		log.Fatalf("Failed to encode response: %v", err)
	}

	// Give the async analytics publish a moment before the bus closes
	time.Sleep(200 * time.Millisecond)
}

// registerProviders wires every provider whose credentials are configured.
// The mock provider is added on demand, or as a fallback when nothing real
// is available and mock mode is "auto".
func registerProviders(ctx context.Context, cfg *config.Config, sourcing *services.SourcingService, cacheProvider domainproviders.CacheProvider) {
	if cfg.Providers.RainforestAPIKey != "" {
		sourcing.RegisterProvider("rainforest", shopping.NewRainforestProvider(
			cfg.Providers.RainforestAPIKey,
			cfg.Providers.AmazonAffiliateTag,
		))
	}
	if cfg.Providers.SerpAPIKey != "" {
		sourcing.RegisterProvider("serpapi", shopping.NewSerpAPIProvider(cfg.Providers.SerpAPIKey))
	}
	if cfg.Providers.SearchAPIKey != "" {
		sourcing.RegisterProvider("searchapi", shopping.NewSearchAPIProvider(cfg.Providers.SearchAPIKey))
	}
	if cfg.Providers.GoogleCSEAPIKey != "" && cfg.Providers.GoogleCSECX != "" {
		sourcing.RegisterProvider("google_cse", shopping.NewGoogleCSEProvider(cfg.Providers.GoogleCSEAPIKey, cfg.Providers.GoogleCSECX))
	}
	if cfg.Providers.EbayClientID != "" && cfg.Providers.EbayClientSecret != "" {
		sourcing.RegisterProvider("ebay_browse", shopping.NewEbayProvider(
			cfg.Providers.EbayClientID,
			cfg.Providers.EbayClientSecret,
			cfg.Providers.EbayMarketplaceID,
		))
	}

	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client, vendor directory disabled: %v", err)
		} else {
			tsClient, err := typesense.NewClient(&cfg.Typesense)
			if err != nil {
				log.Printf("Warning: Typesense unavailable, vendor directory disabled: %v", err)
			} else {
				if err := tsClient.InitSchema(ctx, openaiClient.Dimensions()); err != nil {
					log.Printf("Warning: Failed to init Typesense schema: %v", err)
				}
				searcher := vendors.NewTypesenseVendorSearcher(tsClient)
				sourcing.RegisterProvider("vendor_directory", vendors.NewDirectoryProvider(openaiClient, searcher, cacheProvider))
			}
		}
	}

	switch cfg.Sourcing.UseMockSearch {
	case "always", "1", "true", "yes":
		sourcing.RegisterProvider("mock_provider", shopping.NewMockProvider())
	case "auto":
		if len(sourcing.ProviderIDs()) == 0 {
			log.Println("No real providers configured, falling back to the mock provider")
			sourcing.RegisterProvider("mock_provider", shopping.NewMockProvider())
		}
	}
}
