package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
)

type stubProvider struct {
	results []entities.SearchResult
	err     error
	delay   time.Duration
	panics  bool
}

func (p *stubProvider) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]entities.SearchResult, error) {
	if p.panics {
		panic("boom")
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.results, p.err
}

func TestRunProviderWithStatus_OK(t *testing.T) {
	provider := &stubProvider{results: []entities.SearchResult{
		{Title: "A", Source: "mock_provider"},
		{Title: "B", Source: "mock_provider"},
	}}

	results, status := RunProviderWithStatus(
		context.Background(), "mock", provider, "query", providers.SearchOptions{}, time.Second)

	assert.Len(t, results, 2)
	assert.Equal(t, "mock", status.ProviderID)
	assert.Equal(t, entities.ProviderStatusOK, status.Status)
	assert.Equal(t, 2, status.ResultCount)
	assert.Empty(t, status.Message)
}

func TestRunProviderWithStatus_Timeout(t *testing.T) {
	provider := &stubProvider{delay: 300 * time.Millisecond}

	results, status := RunProviderWithStatus(
		context.Background(), "slow", provider, "query", providers.SearchOptions{}, 50*time.Millisecond)

	assert.Empty(t, results)
	assert.Equal(t, entities.ProviderStatusTimeout, status.Status)
	assert.Equal(t, 0, status.ResultCount)
	assert.Equal(t, "Search timed out", status.Message)
}

func TestRunProviderWithStatus_Error(t *testing.T) {
	provider := &stubProvider{err: errors.New("upstream returned status 500")}

	results, status := RunProviderWithStatus(
		context.Background(), "broken", provider, "query", providers.SearchOptions{}, time.Second)

	assert.Empty(t, results)
	assert.Equal(t, entities.ProviderStatusError, status.Status)
	assert.Contains(t, status.Message, "Search failed: upstream returned status 500")
}

func TestRunProviderWithStatus_ErrorMessageRedactedAndTruncated(t *testing.T) {
	longSuffix := ""
	for i := 0; i < 30; i++ {
		longSuffix += "0123456789"
	}
	provider := &stubProvider{err: errors.New("request https://api.example.com/v1?api_key=sk-secret123 failed " + longSuffix)}

	_, status := RunProviderWithStatus(
		context.Background(), "leaky", provider, "query", providers.SearchOptions{}, time.Second)

	assert.NotContains(t, status.Message, "sk-secret123")
	assert.LessOrEqual(t, len(status.Message), len("Search failed: ")+100)
}

func TestRunProviderWithStatus_PanicBecomesError(t *testing.T) {
	provider := &stubProvider{panics: true}

	results, status := RunProviderWithStatus(
		context.Background(), "panicky", provider, "query", providers.SearchOptions{}, time.Second)

	assert.Empty(t, results)
	require.Equal(t, entities.ProviderStatusError, status.Status)
	assert.Contains(t, status.Message, "panicked")
}

func TestRunProviderWithStatus_LatencyRecorded(t *testing.T) {
	provider := &stubProvider{delay: 30 * time.Millisecond}

	_, status := RunProviderWithStatus(
		context.Background(), "timed", provider, "query", providers.SearchOptions{}, time.Second)

	assert.GreaterOrEqual(t, status.LatencyMS, int64(25))
}
