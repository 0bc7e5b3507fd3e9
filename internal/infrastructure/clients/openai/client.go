package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kyrelabs/dealsource/pkg/config"
	apperrors "github.com/kyrelabs/dealsource/pkg/errors"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is the embedding client used by the vendor directory provider.
type Client struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new embedding client.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.EmbeddingModel
	if model == "" {
		model = "text-embedding-3-small"
	}
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = 1536
	}

	rpm := cfg.RateLimitRPM
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: dimensions,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}, nil
}

// NewClientWithOptions allows overriding base URL and HTTP client (used for tests).
func NewClientWithOptions(cfg *config.OpenAIConfig, baseURL string, httpClient *http.Client) (*Client, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		client.baseURL = baseURL
	}
	if httpClient != nil {
		client.httpClient = httpClient
	}
	return client, nil
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingData struct {
	Embedding []float64 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

// Embed returns one embedding vector per input text, in a single batched call.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, apperrors.NewValidationError("at least one text is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := embeddingRequest{
		Model:      c.model,
		Input:      texts,
		Dimensions: c.dimensions,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding request returned status %d", resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	vectors := make([][]float64, len(parsed.Data))
	for i, d := range parsed.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the configured embedding dimensionality.
func (c *Client) Dimensions() int {
	return c.dimensions
}
