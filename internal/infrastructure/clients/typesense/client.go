package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
	"github.com/kyrelabs/dealsource/pkg/config"
	"github.com/kyrelabs/dealsource/pkg/retry"
)

const (
	VendorsCollection = "vendors"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	logger := observability.GetLogger()

	// Test connection with retry
	retryConfig := retry.DefaultConfig()
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Int("attempt", attempt).Err(err).Dur("next_delay", nextDelay).Msg("Typesense connection attempt failed")
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	logger.Info().Msg("Successfully connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the vendors collection exists
func (c *Client) InitSchema(ctx context.Context, embeddingDimensions int) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == VendorsCollection {
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: VendorsCollection,
		Fields: []api.Field{
			{
				Name: "id",
				Type: "string",
			},
			{
				Name: "name",
				Type: "string",
			},
			{
				Name:     "description",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "tagline",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "website",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "email",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "image_url",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "category",
				Type:     "string",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name:   "embedding",
				Type:   "float[]",
				NumDim: pointer.Int(embeddingDimensions),
			},
			{
				Name: "created_at",
				Type: "int64",
			},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	if _, err := c.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	observability.GetLogger().Info().Str("collection", VendorsCollection).Msg("Created Typesense collection")
	return nil
}

// IndexVendor indexes a vendor document
func (c *Client) IndexVendor(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(VendorsCollection).Documents().Upsert(ctx, document)
	return err
}
