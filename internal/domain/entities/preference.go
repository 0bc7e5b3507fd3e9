package entities

import "time"

// PreferenceKind classifies what a learned affinity applies to.
type PreferenceKind string

const (
	PreferenceKindBrand    PreferenceKind = "brand"
	PreferenceKindMerchant PreferenceKind = "merchant"
	PreferenceKindSource   PreferenceKind = "source"
)

// UserPreference is one learned affinity for a user. Weight runs 0 to 5,
// with 2.5 as the neutral starting point.
type UserPreference struct {
	UserID    string         `json:"user_id"`
	Kind      PreferenceKind `json:"kind"`
	Value     string         `json:"value"`
	Weight    float64        `json:"weight"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PreferenceProfile is the in-memory view the ranker consumes: kind -> value -> weight.
type PreferenceProfile map[PreferenceKind]map[string]float64

// WeightFor returns the stored weight, or the neutral default when unseen.
func (p PreferenceProfile) WeightFor(kind PreferenceKind, value string) float64 {
	if byValue, ok := p[kind]; ok {
		if w, ok := byValue[value]; ok {
			return w
		}
	}
	return NeutralPreferenceWeight
}

const (
	// NeutralPreferenceWeight is the weight assigned before any signal arrives.
	NeutralPreferenceWeight = 2.5
	// MaxPreferenceWeight caps how strong a learned affinity can get.
	MaxPreferenceWeight = 5.0
)

// SignalType is a user interaction the preference learner consumes.
type SignalType string

const (
	SignalThumbsUp   SignalType = "thumbs_up"
	SignalThumbsDown SignalType = "thumbs_down"
	SignalClick      SignalType = "click"
	SignalSelect     SignalType = "select"
	SignalSkip       SignalType = "skip"
)

// SignalEvent captures one interaction with a result, used to adjust preferences.
type SignalEvent struct {
	UserID     string     `json:"user_id"`
	Signal     SignalType `json:"signal"`
	Brand      string     `json:"brand,omitempty"`
	Merchant   string     `json:"merchant,omitempty"`
	Source     string     `json:"source,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
