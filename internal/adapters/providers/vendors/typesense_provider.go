// Package vendors implements the vendor directory sourcing provider, a
// vector search over our own vendor index that runs alongside the web
// shopping providers.
package vendors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	tsclient "github.com/kyrelabs/dealsource/internal/infrastructure/clients/typesense"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
)

const (
	// Cosine distance cutoff: 0 = identical, 2 = opposite.
	DefaultDistanceThreshold = 0.45

	defaultVendorLimit = 15
	embeddingCacheTTL  = 3600

	// How intent vs. full-context embeddings are blended.
	intentWeight  = 0.7
	contextWeight = 0.3
)

// Domains that identify a platform page rather than the vendor's own site.
var aggregatorDomains = map[string]struct{}{
	"google.com":        {},
	"www.google.com":    {},
	"maps.google.com":   {},
	"yelp.com":          {},
	"www.yelp.com":      {},
	"facebook.com":      {},
	"www.facebook.com":  {},
	"linkedin.com":      {},
	"www.linkedin.com":  {},
	"instagram.com":     {},
	"www.instagram.com": {},
	"twitter.com":       {},
	"www.twitter.com":   {},
	"x.com":             {},
	"youtube.com":       {},
	"www.youtube.com":   {},
}

// Embedder produces one embedding vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VendorHit is one vendor document returned by the vector search.
type VendorHit struct {
	ID          string
	Name        string
	Description string
	Tagline     string
	Website     string
	Email       string
	ImageURL    string
	Category    string
	Distance    float64
}

// VendorSearcher runs a nearest-neighbor search over the vendor index.
type VendorSearcher interface {
	SearchByVector(ctx context.Context, vector []float64, limit int) ([]VendorHit, error)
}

// TypesenseVendorSearcher implements VendorSearcher against the vendors collection.
type TypesenseVendorSearcher struct {
	client *tsclient.Client
}

// NewTypesenseVendorSearcher creates a searcher over the Typesense vendors collection.
func NewTypesenseVendorSearcher(client *tsclient.Client) *TypesenseVendorSearcher {
	return &TypesenseVendorSearcher{client: client}
}

// SearchByVector runs a k-nearest-neighbor query and returns hits with their
// cosine distance.
func (s *TypesenseVendorSearcher) SearchByVector(ctx context.Context, vector []float64, limit int) ([]VendorHit, error) {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	vectorQuery := fmt.Sprintf("embedding:([%s], k:%d)", strings.Join(parts, ","), limit)

	searchParams := &api.SearchCollectionParams{
		Q:           pointer.String("*"),
		VectorQuery: pointer.String(vectorQuery),
		PerPage:     pointer.Int(limit),
	}

	result, err := s.client.Client().Collection(tsclient.VendorsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search vendors: %w", err)
	}

	if result.Hits == nil {
		return nil, nil
	}

	hits := make([]VendorHit, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document

		distance := 0.0
		if hit.VectorDistance != nil {
			distance = float64(*hit.VectorDistance)
		}

		hits = append(hits, VendorHit{
			ID:          docString(doc, "id"),
			Name:        docString(doc, "name"),
			Description: docString(doc, "description"),
			Tagline:     docString(doc, "tagline"),
			Website:     docString(doc, "website"),
			Email:       docString(doc, "email"),
			ImageURL:    docString(doc, "image_url"),
			Category:    docString(doc, "category"),
			Distance:    distance,
		})
	}
	return hits, nil
}

func docString(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}

// DirectoryProvider is the vendor directory sourcing provider.
type DirectoryProvider struct {
	embedder          Embedder
	searcher          VendorSearcher
	cache             providers.CacheProvider
	distanceThreshold float64
}

// NewDirectoryProvider creates a vendor directory provider. The cache is
// optional and holds query embeddings to save embedding calls.
func NewDirectoryProvider(embedder Embedder, searcher VendorSearcher, cache providers.CacheProvider) *DirectoryProvider {
	return &DirectoryProvider{
		embedder:          embedder,
		searcher:          searcher,
		cache:             cache,
		distanceThreshold: DefaultDistanceThreshold,
	}
}

// Search embeds the query, runs vector search over the vendor index and
// converts hits into sourcing results.
//
// When opts.ContextQuery carries the full user query, two embeddings are
// blended: 70% intent query and 30% context query. Intent stays dominant
// while vendors matching the broader context still get a boost.
func (p *DirectoryProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	logger := observability.GetLogger()

	embedding, err := p.queryEmbedding(ctx, query, opts.ContextQuery)
	if err != nil {
		logger.Warn().Err(err).Msg("Vendor embedding failed, skipping vector search")
		return []entities.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultVendorLimit
	}

	hits, err := p.searcher.SearchByVector(ctx, embedding, limit)
	if err != nil {
		logger.Warn().Err(err).Msg("Vendor vector search failed")
		return []entities.SearchResult{}, nil
	}

	results := make([]entities.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Distance > p.distanceThreshold {
			continue
		}
		results = append(results, vendorResult(hit))
	}

	logger.Debug().
		Int("vendors", len(results)).
		Int("checked", len(hits)).
		Float64("threshold", p.distanceThreshold).
		Msg("Vendor directory search complete")
	return results, nil
}

func (p *DirectoryProvider) queryEmbedding(ctx context.Context, query, contextQuery string) ([]float64, error) {
	blend := contextQuery != "" &&
		!strings.EqualFold(strings.TrimSpace(contextQuery), strings.TrimSpace(query))

	cacheKey := embeddingCacheKey(query, contextQuery, blend)
	if cached, ok := p.cachedEmbedding(ctx, cacheKey); ok {
		return cached, nil
	}

	var embedding []float64
	if blend {
		vecs, err := p.embedder.Embed(ctx, []string{query, contextQuery})
		if err != nil {
			return nil, err
		}
		if len(vecs) < 2 {
			return nil, fmt.Errorf("expected 2 embeddings, got %d", len(vecs))
		}
		embedding = weightedBlend(vecs, []float64{intentWeight, contextWeight})
	} else {
		vecs, err := p.embedder.Embed(ctx, []string{query})
		if err != nil {
			return nil, err
		}
		if len(vecs) < 1 {
			return nil, fmt.Errorf("embedding response was empty")
		}
		embedding = vecs[0]
	}

	p.storeEmbedding(ctx, cacheKey, embedding)
	return embedding, nil
}

func (p *DirectoryProvider) cachedEmbedding(ctx context.Context, key string) ([]float64, bool) {
	if p.cache == nil {
		return nil, false
	}
	data, err := p.cache.Get(ctx, key)
	if err != nil {
		observability.RecordCacheMiss(ctx)
		return nil, false
	}
	var embedding []float64
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, false
	}
	observability.RecordCacheHit(ctx)
	return embedding, true
}

func (p *DirectoryProvider) storeEmbedding(ctx context.Context, key string, embedding []float64) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(embedding)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, data, embeddingCacheTTL); err != nil {
		observability.GetLogger().Debug().Err(err).Msg("Failed to cache embedding")
	}
}

func embeddingCacheKey(query, contextQuery string, blend bool) string {
	material := strings.ToLower(strings.TrimSpace(query))
	if blend {
		material += "\x00" + strings.ToLower(strings.TrimSpace(contextQuery))
	}
	sum := sha256.Sum256([]byte(material))
	return "vendor:embedding:" + hex.EncodeToString(sum[:])
}

// weightedBlend combines embedding vectors with the given weights, then
// L2-normalizes so cosine distance stays meaningful.
func weightedBlend(vecs [][]float64, weights []float64) []float64 {
	dim := len(vecs[0])
	blended := make([]float64, dim)
	for i, vec := range vecs {
		for j := 0; j < dim && j < len(vec); j++ {
			blended[j] += vec[j] * weights[i]
		}
	}

	var norm float64
	for _, v := range blended {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range blended {
			blended[i] /= norm
		}
	}
	return blended
}

// vendorResult converts a directory hit into the provider-neutral shape.
// Vendors are service businesses so they carry no price.
func vendorResult(hit VendorHit) entities.SearchResult {
	url := hit.Website
	if url == "" && hit.Email != "" {
		url = "mailto:" + hit.Email
	}

	merchantDomain := ""
	if hit.Website != "" {
		raw := strings.TrimPrefix(strings.TrimPrefix(hit.Website, "https://"), "http://")
		if idx := strings.Index(raw, "/"); idx >= 0 {
			raw = raw[:idx]
		}
		if _, aggregator := aggregatorDomains[strings.ToLower(raw)]; !aggregator && raw != "" {
			merchantDomain = raw
		}
	}

	imageURL := hit.ImageURL
	if imageURL == "" && merchantDomain != "" {
		imageURL = fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=128", merchantDomain)
	}

	shippingInfo := ""
	if hit.Category != "" {
		shippingInfo = "Category: " + hit.Category
	}

	return entities.SearchResult{
		Title:          hit.Name,
		Price:          nil,
		Currency:       "USD",
		Merchant:       hit.Name,
		URL:            url,
		MerchantDomain: merchantDomain,
		MatchScore:     1.0 - hit.Distance,
		ImageURL:       imageURL,
		ShippingInfo:   shippingInfo,
		Source:         "vendor_directory",
	}
}
