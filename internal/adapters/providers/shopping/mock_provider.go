package shopping

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

var mockMerchants = []string{
	"Amazon", "Walmart", "Target", "eBay", "Best Buy", "Costco", "Kohl's", "Macy's",
}

// MockProvider returns deterministic sample offers seeded by the query.
// Used in development and for the "auto" provider mode when no API keys
// are configured.
type MockProvider struct{}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Search implements the SourcingProvider interface.
func (p *MockProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	seed := querySeed(query)
	rng := rand.New(rand.NewSource(int64(seed)))

	count := 8 + rng.Intn(8)
	results := make([]entities.SearchResult, 0, count)
	for i := 0; i < count; i++ {
		price := roundCents(15 + rng.Float64()*135)
		rating := float64(int((3.5+rng.Float64()*1.5)*10)) / 10
		reviews := 10 + rng.Intn(4991)

		edition := "Standard"
		if i%3 == 0 {
			edition = "Premium"
		}

		shippingInfo := "Ships in 2-3 days"
		if rng.Float64() > 0.3 {
			shippingInfo = "Free shipping"
		}

		itemURL := fmt.Sprintf("https://example.com/product/%d", seed+uint64(i))
		results = append(results, entities.SearchResult{
			Title:          fmt.Sprintf("%s - Style %c %s Edition", query, rune('A'+i), edition),
			Price:          floatPtr(price),
			Currency:       "USD",
			Merchant:       mockMerchants[rng.Intn(len(mockMerchants))],
			URL:            itemURL,
			MerchantDomain: utils.MerchantDomain(itemURL),
			ImageURL:       fmt.Sprintf("https://picsum.photos/seed/%d/300/300", seed+uint64(i)),
			Rating:         floatPtr(rating),
			ReviewsCount:   intPtr(reviews),
			ShippingInfo:   shippingInfo,
			Source:         "mock_provider",
		})
	}
	return results, nil
}

// querySeed derives a stable seed from the query so repeated searches
// return identical data.
func querySeed(query string) uint64 {
	sum := md5.Sum([]byte(query))
	hexDigest := hex.EncodeToString(sum[:])
	seed, _ := strconv.ParseUint(hexDigest[:8], 16, 64)
	return seed
}

func roundCents(v float64) float64 {
	return float64(int(v*100)) / 100
}
