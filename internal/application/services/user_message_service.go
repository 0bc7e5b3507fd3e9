package services

import "github.com/kyrelabs/dealsource/internal/domain/entities"

const (
	msgQuotaExhausted = "Search providers have exhausted their quota. Please try again later or contact support."
	msgRateLimited    = "Search is temporarily rate-limited. Please wait a moment and try again."
	msgSearchFailed   = "Unable to search at this time. Please try again later."
)

// DetermineSearchUserMessage picks the user-facing fallback message for an
// empty result set. Returns nil when no message is needed, in particular
// when results are present or when providers succeeded but simply found
// nothing.
func DetermineSearchUserMessage(
	results []entities.NormalizedResult,
	statuses []entities.ProviderStatusSnapshot,
) *string {
	if len(results) > 0 {
		return nil
	}

	exhaustedCount := 0
	rateLimitedCount := 0
	allFailed := true
	for _, s := range statuses {
		switch s.Status {
		case entities.ProviderStatusExhausted:
			exhaustedCount++
		case entities.ProviderStatusRateLimited:
			rateLimitedCount++
		case entities.ProviderStatusOK:
			allFailed = false
		}
	}

	if len(statuses) > 0 && exhaustedCount == len(statuses) {
		msg := msgQuotaExhausted
		return &msg
	}
	if rateLimitedCount > 0 {
		msg := msgRateLimited
		return &msg
	}
	// Zero statuses counts as a failure
	if allFailed {
		msg := msgSearchFailed
		return &msg
	}
	return nil
}
