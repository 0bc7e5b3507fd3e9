package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

// DefaultProviderTimeout bounds how long one provider may take before its
// slot is declared a timeout.
const DefaultProviderTimeout = 8 * time.Second

type providerOutcome struct {
	results []entities.SearchResult
	err     error
}

// RunProviderWithStatus executes one provider search bounded by the timeout
// and always returns a status snapshot alongside any results.
//
// A provider that overruns the timeout keeps running in its goroutine but
// its results are abandoned; the returned status is "timeout". Panics are
// recovered and reported as errors so one misbehaving provider cannot take
// down the fan-out.
func RunProviderWithStatus(
	ctx context.Context,
	providerID string,
	provider providers.SourcingProvider,
	query string,
	opts providers.SearchOptions,
	timeout time.Duration,
) ([]entities.SearchResult, entities.ProviderStatusSnapshot) {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	started := time.Now()
	outcome := make(chan providerOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- providerOutcome{err: fmt.Errorf("provider panicked: %v", r)}
			}
		}()
		results, err := provider.Search(ctx, query, opts)
		outcome <- providerOutcome{results: results, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-outcome:
		elapsedMS := time.Since(started).Milliseconds()
		if out.err != nil {
			observability.GetLogger().Warn().
				Str("provider", providerID).
				Err(out.err).
				Msg("Provider search failed")
			return nil, entities.ProviderStatusSnapshot{
				ProviderID: providerID,
				Status:     entities.ProviderStatusError,
				LatencyMS:  elapsedMS,
				Message:    "Search failed: " + truncateMessage(utils.RedactSecrets(out.err.Error()), 100),
			}
		}
		return out.results, entities.ProviderStatusSnapshot{
			ProviderID:  providerID,
			Status:      entities.ProviderStatusOK,
			ResultCount: len(out.results),
			LatencyMS:   elapsedMS,
		}
	case <-timer.C:
		elapsedMS := time.Since(started).Milliseconds()
		observability.GetLogger().Warn().
			Str("provider", providerID).
			Dur("timeout", timeout).
			Msg("Provider search timed out")
		return nil, entities.ProviderStatusSnapshot{
			ProviderID: providerID,
			Status:     entities.ProviderStatusTimeout,
			LatencyMS:  elapsedMS,
			Message:    "Search timed out",
		}
	}
}

func truncateMessage(msg string, max int) string {
	if len(msg) <= max {
		return msg
	}
	return msg[:max]
}
