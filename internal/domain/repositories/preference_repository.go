package repositories

import (
	"context"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
)

// PreferenceRepository persists learned user affinities.
type PreferenceRepository interface {
	// Upsert writes a preference, replacing any existing row for the same
	// (user, kind, value) tuple.
	Upsert(ctx context.Context, pref *entities.UserPreference) error

	// ProfileFor loads all preferences for a user as a ranking profile.
	ProfileFor(ctx context.Context, userID string) (entities.PreferenceProfile, error)
}
