package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
)

func snapshot(status entities.ProviderStatus) entities.ProviderStatusSnapshot {
	return entities.ProviderStatusSnapshot{ProviderID: "p", Status: status}
}

func TestDetermineSearchUserMessage_ResultsSuppressMessage(t *testing.T) {
	results := []entities.NormalizedResult{{Title: "Item"}}
	statuses := []entities.ProviderStatusSnapshot{snapshot(entities.ProviderStatusExhausted)}

	assert.Nil(t, DetermineSearchUserMessage(results, statuses))
}

func TestDetermineSearchUserMessage_AllExhausted(t *testing.T) {
	statuses := []entities.ProviderStatusSnapshot{
		snapshot(entities.ProviderStatusExhausted),
		snapshot(entities.ProviderStatusExhausted),
	}

	msg := DetermineSearchUserMessage(nil, statuses)
	require.NotNil(t, msg)
	assert.Equal(t, "Search providers have exhausted their quota. Please try again later or contact support.", *msg)
}

func TestDetermineSearchUserMessage_AnyRateLimited(t *testing.T) {
	statuses := []entities.ProviderStatusSnapshot{
		snapshot(entities.ProviderStatusOK),
		snapshot(entities.ProviderStatusRateLimited),
	}

	msg := DetermineSearchUserMessage(nil, statuses)
	require.NotNil(t, msg)
	assert.Equal(t, "Search is temporarily rate-limited. Please wait a moment and try again.", *msg)
}

func TestDetermineSearchUserMessage_AllFailed(t *testing.T) {
	statuses := []entities.ProviderStatusSnapshot{
		snapshot(entities.ProviderStatusError),
		snapshot(entities.ProviderStatusTimeout),
	}

	msg := DetermineSearchUserMessage(nil, statuses)
	require.NotNil(t, msg)
	assert.Equal(t, "Unable to search at this time. Please try again later.", *msg)
}

func TestDetermineSearchUserMessage_NoStatusesCountsAsFailure(t *testing.T) {
	msg := DetermineSearchUserMessage(nil, nil)
	require.NotNil(t, msg)
	assert.Equal(t, "Unable to search at this time. Please try again later.", *msg)
}

func TestDetermineSearchUserMessage_EmptyButHealthy(t *testing.T) {
	statuses := []entities.ProviderStatusSnapshot{
		snapshot(entities.ProviderStatusOK),
		snapshot(entities.ProviderStatusError),
	}

	assert.Nil(t, DetermineSearchUserMessage(nil, statuses))
}
