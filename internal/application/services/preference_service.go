package services

import (
	"context"
	"strings"
	"time"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/repositories"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
)

// Per-signal weight deltas. Brand affinity moves fastest since it is the
// strongest purchase signal.
const (
	brandDelta    = 0.15
	merchantDelta = 0.10
	sourceDelta   = 0.05
)

// PreferenceService turns interaction signals into persisted affinity
// weights and serves ranking profiles.
type PreferenceService struct {
	repo repositories.PreferenceRepository
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(repo repositories.PreferenceRepository) *PreferenceService {
	return &PreferenceService{repo: repo}
}

// LearnFromSignal adjusts the user's brand, merchant and source weights
// from one interaction. Positive signals raise weights, thumbs_down and
// skip lower them. Weights are clamped to [0, MaxPreferenceWeight].
func (s *PreferenceService) LearnFromSignal(ctx context.Context, signal *entities.SignalEvent) error {
	direction := 1.0
	if signal.Signal == entities.SignalThumbsDown || signal.Signal == entities.SignalSkip {
		direction = -1.0
	}

	profile, err := s.repo.ProfileFor(ctx, signal.UserID)
	if err != nil {
		return err
	}

	type adjustment struct {
		kind  entities.PreferenceKind
		value string
		delta float64
	}
	var adjustments []adjustment
	if signal.Brand != "" {
		adjustments = append(adjustments, adjustment{entities.PreferenceKindBrand, strings.ToLower(signal.Brand), brandDelta})
	}
	if signal.Merchant != "" {
		adjustments = append(adjustments, adjustment{entities.PreferenceKindMerchant, strings.ToLower(signal.Merchant), merchantDelta})
	}
	if signal.Source != "" {
		adjustments = append(adjustments, adjustment{entities.PreferenceKindSource, signal.Source, sourceDelta})
	}

	now := signal.OccurredAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	for _, adj := range adjustments {
		weight := profile.WeightFor(adj.kind, adj.value) + direction*adj.delta
		if weight < 0 {
			weight = 0
		}
		if weight > entities.MaxPreferenceWeight {
			weight = entities.MaxPreferenceWeight
		}

		pref := &entities.UserPreference{
			UserID:    signal.UserID,
			Kind:      adj.kind,
			Value:     adj.value,
			Weight:    weight,
			UpdatedAt: now,
		}
		if err := s.repo.Upsert(ctx, pref); err != nil {
			return err
		}
	}

	observability.GetLogger().Debug().
		Str("user_id", signal.UserID).
		Str("signal", string(signal.Signal)).
		Int("adjustments", len(adjustments)).
		Msg("Learned from signal")
	return nil
}

// ProfileFor loads the user's ranking profile. A missing or failing
// repository yields a nil profile, which ranks neutrally.
func (s *PreferenceService) ProfileFor(ctx context.Context, userID string) (entities.PreferenceProfile, error) {
	if userID == "" {
		return nil, nil
	}
	return s.repo.ProfileFor(ctx, userID)
}
