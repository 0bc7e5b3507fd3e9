package services

import (
	"math"
	"sort"
	"strings"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
)

// ScoringWeights holds the base dimension weights. They must sum to 1.
type ScoringWeights struct {
	Relevance float64
	Price     float64
	Quality   float64
	Diversity float64
}

// DefaultScoringWeights returns the production weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Relevance: 0.45,
		Price:     0.20,
		Quality:   0.20,
		Diversity: 0.15,
	}
}

// Sources with affiliate coverage get boosted; sources we pay per result
// without a revenue share get penalized.
var (
	affiliateBoosted   = map[string]struct{}{"rainforest": {}, "amazon": {}}
	affiliatePenalized = map[string]struct{}{
		"serpapi": {}, "searchapi": {}, "google_cse": {}, "google_shopping": {},
	}
)

// SearchRankingService scores and orders normalized results.
//
// Each result gets a base score from relevance, price fit, quality and
// provider diversity, then soft multipliers for source fit, affiliate
// coverage and learned user preferences. The breakdown is written into the
// result's provenance.
type SearchRankingService struct {
	weights ScoringWeights
}

// NewSearchRankingService creates a ranking service with the given weights.
func NewSearchRankingService(weights ScoringWeights) *SearchRankingService {
	return &SearchRankingService{weights: weights}
}

// Rank scores results in place and returns them sorted by descending
// combined score. The sort is stable so ties keep their arrival order.
func (s *SearchRankingService) Rank(
	results []entities.NormalizedResult,
	intent *entities.SearchIntent,
	minPrice, maxPrice *float64,
	profile entities.PreferenceProfile,
) []entities.NormalizedResult {
	if len(results) == 0 {
		return results
	}

	sourceCounts := map[string]int{}
	for _, r := range results {
		sourceCounts[r.Source]++
	}
	total := len(results)

	for i := range results {
		r := &results[i]

		ps := s.priceScore(r, minPrice, maxPrice)
		rs := s.relevanceScore(r, intent)
		qs := s.qualityScore(r)
		db := s.diversityBonus(r.Source, sourceCounts, total)
		sf := s.sourceFitScore(r)
		am := s.affiliateMultiplier(r.Source)
		pref := s.preferenceScore(r, intent, profile)

		base := rs*s.weights.Relevance + ps*s.weights.Price + qs*s.weights.Quality + db*s.weights.Diversity
		combined := base * (0.3 + 0.7*sf) * am * (0.9 + 0.2*pref)

		r.Provenance.Score = &entities.ScoreBreakdown{
			Combined:            round4(combined),
			Relevance:           round4(rs),
			SourceFit:           round4(sf),
			Price:               round4(ps),
			Quality:             round4(qs),
			Diversity:           round4(db),
			Preference:          round4(pref),
			AffiliateMultiplier: round4(am),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Provenance.Score.Combined > results[j].Provenance.Score.Combined
	})

	observability.GetLogger().Debug().
		Int("results", len(results)).
		Float64("top_score", results[0].Provenance.Score.Combined).
		Float64("bottom_score", results[len(results)-1].Provenance.Score.Combined).
		Msg("Ranked results")
	return results
}

// priceScore rates how well the price fits the requested budget.
func (s *SearchRankingService) priceScore(r *entities.NormalizedResult, minPrice, maxPrice *float64) float64 {
	if r.Price == nil {
		return 0.5
	}
	price := *r.Price
	if price <= 0 {
		return 0.3
	}
	if minPrice == nil && maxPrice == nil {
		return 0.5
	}

	if minPrice != nil && maxPrice != nil {
		mid := (*minPrice + *maxPrice) / 2
		span := *maxPrice - *minPrice
		if span <= 0 {
			if math.Abs(price-mid) < 1 {
				return 1.0
			}
			return 0.2
		}
		distance := math.Abs(price-mid) / (span / 2)
		if distance <= 1.0 {
			return 1.0 - distance*0.3
		}
		return math.Max(0.0, 0.7-(distance-1.0)*0.5)
	}

	if maxPrice != nil {
		if price <= *maxPrice {
			return 0.8 + 0.2*(1-price / *maxPrice)
		}
		return math.Max(0.0, 0.5-(price-*maxPrice) / *maxPrice)
	}

	if price >= *minPrice {
		return 0.8
	}
	return math.Max(0.0, 0.5-(*minPrice-price) / *minPrice)
}

// relevanceScore rates how well the result matches the intent. Vendor
// directory results use their vector similarity directly; the embedding
// model already encodes semantic relevance for them.
func (s *SearchRankingService) relevanceScore(r *entities.NormalizedResult, intent *entities.SearchIntent) float64 {
	if r.Source == "vendor_directory" && r.Provenance.VectorSimilarity != nil {
		return math.Max(0.0, math.Min(1.0, (*r.Provenance.VectorSimilarity-0.40)/0.25))
	}

	if intent == nil {
		return 0.5
	}

	score := 0.0
	titleLower := strings.ToLower(r.Title)
	merchantLower := strings.ToLower(r.MerchantName)
	descLower := ""
	if r.RawData != nil {
		if snippet, ok := r.RawData["snippet"].(string); ok && snippet != "" {
			descLower = strings.ToLower(snippet)
		} else if desc, ok := r.RawData["description"].(string); ok {
			descLower = strings.ToLower(desc)
		}
	}
	searchable := titleLower + " " + merchantLower + " " + descLower

	if intent.Brand != "" {
		brandLower := strings.ToLower(intent.Brand)
		switch {
		case strings.Contains(titleLower, brandLower):
			score += 0.25
		case strings.Contains(searchable, brandLower):
			score += 0.15
		default:
			for _, word := range strings.Fields(brandLower) {
				if strings.Contains(searchable, word) {
					score += 0.08
					break
				}
			}
		}
	}

	if len(intent.Keywords) > 0 {
		titleMatched := 0
		fullMatched := 0
		for _, kw := range intent.Keywords {
			kwLower := strings.ToLower(kw)
			if strings.Contains(titleLower, kwLower) {
				titleMatched++
			}
			if strings.Contains(searchable, kwLower) {
				fullMatched++
			}
		}
		kwCount := float64(len(intent.Keywords))
		titleRatio := float64(titleMatched) / kwCount
		fullRatio := float64(fullMatched) / kwCount
		score += titleRatio*0.35 + (fullRatio-titleRatio)*0.10
	}

	if intent.ProductName != "" {
		var nameWords []string
		for _, w := range strings.Fields(strings.ToLower(intent.ProductName)) {
			if len(w) > 2 {
				nameWords = append(nameWords, w)
			}
		}
		if len(nameWords) > 0 {
			matched := 0
			for _, w := range nameWords {
				if strings.Contains(titleLower, w) {
					matched++
				}
			}
			score += float64(matched) / float64(len(nameWords)) * 0.15
		}
	}

	if intent.ProductCategory != "" {
		catWords := strings.Fields(strings.ReplaceAll(strings.ToLower(intent.ProductCategory), "_", " "))
		if len(catWords) > 0 {
			matched := 0
			for _, w := range catWords {
				if strings.Contains(searchable, w) {
					matched++
				}
			}
			score += float64(matched) / float64(len(catWords)) * 0.10
		}
	}

	score += 0.05
	return math.Min(score, 1.0)
}

// qualityScore rates rating, review volume, image and shipping signals.
func (s *SearchRankingService) qualityScore(r *entities.NormalizedResult) float64 {
	score := 0.3

	if r.Rating != nil && *r.Rating > 0 {
		score += (*r.Rating / 5.0) * 0.35
	}
	if r.ReviewsCount != nil && *r.ReviewsCount > 0 {
		reviewSignal := math.Min(math.Log10(float64(*r.ReviewsCount)+1)/3.0, 1.0)
		score += reviewSignal * 0.2
	}
	if r.ImageURL != "" {
		score += 0.05
	}
	if r.ShippingInfo != "" {
		score += 0.1
	}
	return math.Min(score, 1.0)
}

// diversityBonus rewards results from underrepresented providers so one
// noisy source cannot crowd out the rest.
func (s *SearchRankingService) diversityBonus(source string, sourceCounts map[string]int, total int) float64 {
	if total <= 1 {
		return 0.5
	}
	count := sourceCounts[source]
	if count == 0 {
		count = 1
	}
	share := float64(count) / float64(total)
	switch {
	case share < 0.2:
		return 1.0
	case share < 0.4:
		return 0.7
	case share < 0.6:
		return 0.4
	default:
		return 0.2
	}
}

// sourceFitScore is a soft multiplier input. Vendor results pass their
// vector similarity through; everything else stays neutral and lets
// relevance do the work.
func (s *SearchRankingService) sourceFitScore(r *entities.NormalizedResult) float64 {
	if r.Source == "vendor_directory" {
		if r.Provenance.VectorSimilarity != nil {
			return math.Max(0.3, math.Min(1.0, *r.Provenance.VectorSimilarity*1.5))
		}
		return 0.5
	}
	return 0.5
}

func (s *SearchRankingService) affiliateMultiplier(source string) float64 {
	if _, ok := affiliateBoosted[source]; ok {
		return 1.25
	}
	if _, ok := affiliatePenalized[source]; ok {
		return 0.60
	}
	return 1.0
}

// preferenceScore maps learned affinities to 0..1 with 0.5 as neutral.
// Brand weight only applies when the intent's brand appears in the title.
func (s *SearchRankingService) preferenceScore(
	r *entities.NormalizedResult,
	intent *entities.SearchIntent,
	profile entities.PreferenceProfile,
) float64 {
	if profile == nil {
		return 0.5
	}

	var sum float64
	var n int

	sum += profile.WeightFor(entities.PreferenceKindMerchant, strings.ToLower(r.MerchantName))
	n++
	sum += profile.WeightFor(entities.PreferenceKindSource, r.Source)
	n++

	if intent != nil && intent.Brand != "" &&
		strings.Contains(strings.ToLower(r.Title), strings.ToLower(intent.Brand)) {
		sum += profile.WeightFor(entities.PreferenceKindBrand, strings.ToLower(intent.Brand))
		n++
	}

	return sum / float64(n) / entities.MaxPreferenceWeight
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
