package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyrelabs/dealsource/internal/domain/entities"
	"github.com/kyrelabs/dealsource/internal/domain/providers"
	"github.com/kyrelabs/dealsource/internal/infrastructure/observability"
	"github.com/kyrelabs/dealsource/pkg/config"
	"github.com/kyrelabs/dealsource/pkg/utils"
)

// Sources that return quote-based or informational listings without a
// fixed price. Price bounds never drop their results.
var nonPricedSources = map[string]struct{}{
	"google_cse":       {},
	"vendor_directory": {},
}

// providerAliases maps the names callers commonly request onto registry
// ids, so "amazon" selects the Rainforest provider and "ebay" the Browse
// API one.
var providerAliases = map[string]string{
	"amazon":                    "rainforest",
	"rainforest_amazon":         "rainforest",
	"ebay":                      "ebay_browse",
	"google":                    "google_cse",
	"google_shopping":           "serpapi",
	"serpapi_google_shopping":   "serpapi",
	"searchapi_google_shopping": "searchapi",
	"vendors":                   "vendor_directory",
	"mock":                      "mock_provider",
}

// NormalizeProviderFilter trims, lowercases and alias-resolves a requested
// provider list. Blank entries are dropped; unknown names pass through and
// are discarded later when they match nothing in the registry.
func NormalizeProviderFilter(filter []string) []string {
	var normalized []string
	for _, name := range filter {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if canonical, ok := providerAliases[name]; ok {
			name = canonical
		}
		normalized = append(normalized, name)
	}
	return normalized
}

// SearchAllOptions carries per-search context that is not part of the
// structured intent.
type SearchAllOptions struct {
	// Providers restricts the fan-out to the named provider ids. Empty
	// means all registered providers.
	Providers []string
	// VendorQuery is the clean product phrase used as the primary
	// vendor directory query. The full query string is then passed as
	// context for embedding blending.
	VendorQuery string
	// DesireTier is logged for diagnostics only. All providers run for
	// all tiers; the ranker's source-fit multiplier handles tier
	// mismatch softly. Hard gating starves vendor discovery and fails
	// on edge cases (catering equipment IS on Amazon).
	DesireTier string
	// ChoiceAnswers holds the user's guided-question answers, matched
	// against titles by the choice filter.
	ChoiceAnswers map[string]any
	// UserID selects the preference profile used for ranking.
	UserID string
	GL     string
	HL     string
}

// SourcingService orchestrates the full search pipeline: provider
// selection, concurrent fan-out with per-provider timeouts, status
// classification, URL hygiene, deduplication, normalization, filtering,
// ranking and fallback messaging.
type SourcingService struct {
	queryBuilder *QueryBuilderService
	normalizer   *ResultNormalizerService
	filters      *ResultFilterService
	ranker       *SearchRankingService
	preferences  *PreferenceService
	analytics    *SearchAnalyticsService

	mu              sync.RWMutex
	registry        map[string]providers.SourcingProvider
	providerOrder   []string
	timeout         time.Duration
	defaultLinkHost string
}

// NewSourcingService creates the orchestrator. Preferences and analytics
// may be nil; ranking then runs with a neutral profile and no events are
// published.
func NewSourcingService(
	cfg *config.SourcingConfig,
	queryBuilder *QueryBuilderService,
	normalizer *ResultNormalizerService,
	filters *ResultFilterService,
	ranker *SearchRankingService,
	preferences *PreferenceService,
	analytics *SearchAnalyticsService,
) *SourcingService {
	timeout := DefaultProviderTimeout
	defaultLinkHost := "www.google.com"
	if cfg != nil {
		if cfg.ProviderTimeoutSeconds > 0 {
			timeout = time.Duration(cfg.ProviderTimeoutSeconds * float64(time.Second))
		}
		if cfg.DefaultLinkHost != "" {
			defaultLinkHost = cfg.DefaultLinkHost
		}
	}
	return &SourcingService{
		queryBuilder:    queryBuilder,
		normalizer:      normalizer,
		filters:         filters,
		ranker:          ranker,
		preferences:     preferences,
		analytics:       analytics,
		registry:        map[string]providers.SourcingProvider{},
		timeout:         timeout,
		defaultLinkHost: defaultLinkHost,
	}
}

// RegisterProvider adds a provider to the fan-out. Registration order is
// preserved and decides which duplicate URL wins.
func (s *SourcingService) RegisterProvider(id string, provider providers.SourcingProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registry[id]; !exists {
		s.providerOrder = append(s.providerOrder, id)
	}
	s.registry[id] = provider
}

// ProviderIDs returns the registered provider ids in registration order.
func (s *SourcingService) ProviderIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.providerOrder))
	copy(ids, s.providerOrder)
	return ids
}

// selectProviders resolves the requested filter against the registry.
// Unknown names are dropped; an empty filter selects everything.
func (s *SourcingService) selectProviders(filter []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allow := map[string]struct{}{}
	for _, name := range NormalizeProviderFilter(filter) {
		allow[name] = struct{}{}
	}
	if len(allow) == 0 {
		ids := make([]string, len(s.providerOrder))
		copy(ids, s.providerOrder)
		return ids
	}

	var selected []string
	for _, id := range s.providerOrder {
		if _, ok := allow[id]; ok {
			selected = append(selected, id)
		}
	}
	return selected
}

type providerRun struct {
	providerID string
	results    []entities.SearchResult
	status     entities.ProviderStatusSnapshot
}

// SearchAllWithStatus runs the query across the selected providers and
// assembles the aggregated response. Provider failures never fail the
// search; they surface as status snapshots and, when nothing at all comes
// back, as a user-facing message.
func (s *SourcingService) SearchAllWithStatus(
	ctx context.Context,
	intent *entities.SearchIntent,
	opts SearchAllOptions,
) (*entities.AggregatedSearchResponse, error) {
	started := time.Now()
	intent.Normalize()

	query := s.queryBuilder.BuildQueryString(intent)
	selected := s.selectProviders(opts.Providers)
	if opts.DesireTier != "" {
		// All providers run for all tiers. The ranker handles tier fit.
		observability.GetLogger().Info().
			Str("desire_tier", opts.DesireTier).
			Strs("providers", selected).
			Msg("Running all selected providers (no tier gating)")
	}
	queryMap := s.queryBuilder.BuildProviderQueryMap(intent, selected)

	runs := make([]providerRun, len(selected))
	var wg sync.WaitGroup
	for i, providerID := range selected {
		s.mu.RLock()
		provider := s.registry[providerID]
		s.mu.RUnlock()

		wg.Add(1)
		go func(slot int, id string, p providers.SourcingProvider) {
			defer wg.Done()

			effectiveQuery := query
			if pq, ok := queryMap.Get(id); ok && pq.Query != "" {
				effectiveQuery = pq.Query
			}
			searchOpts := providers.SearchOptions{
				MinPrice:  intent.MinPrice,
				MaxPrice:  intent.MaxPrice,
				Condition: intent.Condition,
				GL:        opts.GL,
				HL:        opts.HL,
			}
			// Vendor directory: the clean product phrase is the primary
			// query and the full query string blends in as context.
			if id == "vendor_directory" && opts.VendorQuery != "" {
				effectiveQuery = opts.VendorQuery
				searchOpts.ContextQuery = query
			}

			results, status := RunProviderWithStatus(ctx, id, p, effectiveQuery, searchOpts, s.timeout)
			classifyProviderStatus(&status)
			observability.RecordProviderMetric(ctx, id, string(status.Status), status.ResultCount, status.LatencyMS)
			runs[slot] = providerRun{providerID: id, results: results, status: status}
		}(i, providerID, provider)
	}
	wg.Wait()

	statuses := make([]entities.ProviderStatusSnapshot, 0, len(runs))
	type rawPair struct {
		providerID string
		result     entities.SearchResult
	}
	var rawResults []rawPair
	for _, run := range runs {
		statuses = append(statuses, run.status)
		for _, result := range run.results {
			if !s.allowURL(result.URL) {
				continue
			}
			rawResults = append(rawResults, rawPair{providerID: run.providerID, result: result})
		}
	}

	// Deduplicate by URL, first provider wins
	seenURLs := map[string]struct{}{}
	unique := rawResults[:0]
	for _, pair := range rawResults {
		key := strings.TrimRight(strings.ToLower(pair.result.URL), "/")
		if _, dup := seenURLs[key]; dup {
			continue
		}
		seenURLs[key] = struct{}{}
		unique = append(unique, pair)
	}

	for i := range unique {
		if unique[i].result.MerchantDomain == "" {
			unique[i].result.MerchantDomain = utils.MerchantDomain(unique[i].result.URL)
		}
		// Vendor directory hits already carry their vector similarity
		// as the match score; leave those untouched.
		if unique[i].result.MatchScore == 0 {
			unique[i].result.MatchScore = computeMatchScore(&unique[i].result, query)
		}
	}

	normalized := make([]entities.NormalizedResult, 0, len(unique))
	for _, pair := range unique {
		normalized = append(normalized, s.normalizer.NormalizeForProvider(pair.providerID, []entities.SearchResult{pair.result})...)
	}

	filtered := normalized[:0]
	for _, result := range normalized {
		if _, nonPriced := nonPricedSources[result.Source]; !nonPriced {
			if !s.filters.ShouldIncludeResult(result.Price, intent.MinPrice, intent.MaxPrice) {
				continue
			}
		}
		if s.filters.ShouldExcludeByChoices(result.Title, opts.ChoiceAnswers) {
			continue
		}
		if s.filters.ShouldExcludeByExclusions(result.Title, result.MerchantName, result.MerchantDomain, intent.ExcludeKeywords, intent.ExcludeMerchants) {
			continue
		}
		filtered = append(filtered, result)
	}

	var profile entities.PreferenceProfile
	if s.preferences != nil {
		var err error
		profile, err = s.preferences.ProfileFor(ctx, opts.UserID)
		if err != nil {
			observability.GetLogger().Warn().Err(err).Msg("Failed to load preference profile, ranking neutrally")
			profile = nil
		}
	}
	ranked := s.ranker.Rank(filtered, intent, intent.MinPrice, intent.MaxPrice, profile)

	response := &entities.AggregatedSearchResponse{
		SearchID:         uuid.New(),
		SearchIntent:     *intent,
		ProviderQueries:  queryMap,
		Results:          ranked,
		ProviderStatuses: statuses,
		UserMessage:      DetermineSearchUserMessage(ranked, statuses),
		GeneratedAt:      time.Now().UTC(),
	}

	observability.GetLogger().Info().
		Str("search_id", response.SearchID.String()).
		Str("query", query).
		Int("providers", len(selected)).
		Int("raw_results", len(rawResults)).
		Int("unique_results", len(unique)).
		Int("final_results", len(ranked)).
		Dur("elapsed", time.Since(started)).
		Msg("Search completed")
	observability.RecordSearchMetric(ctx, len(ranked), time.Since(started).Milliseconds())

	if s.analytics != nil {
		s.analytics.PublishSearchCompleted(ctx, response)
	}
	return response, nil
}

// classifyProviderStatus maps transport-level failures onto the statuses
// the messaging layer understands. Quota and rate-limit failures keep
// their meaning; everything else collapses to a generic failure so raw
// upstream errors never reach users.
func classifyProviderStatus(status *entities.ProviderStatusSnapshot) {
	if status.Status == entities.ProviderStatusOK {
		return
	}
	message := status.Message
	switch {
	case strings.Contains(message, "402") || strings.Contains(message, "Payment Required"):
		status.Status = entities.ProviderStatusExhausted
		status.Message = "API quota exhausted"
	case strings.Contains(message, "429") || strings.Contains(message, "Too Many Requests"):
		status.Status = entities.ProviderStatusRateLimited
		status.Message = "Rate limit exceeded"
	case status.Status == entities.ProviderStatusError:
		status.Message = "Search failed"
	}
}

// allowURL keeps only results whose URL resolves to an absolute http(s)
// or mailto link after normalization.
func (s *SourcingService) allowURL(raw string) bool {
	norm := strings.ToLower(utils.EnsureAbsoluteURL(raw, s.defaultLinkHost))
	if norm == "" {
		return false
	}
	return strings.HasPrefix(norm, "http://") ||
		strings.HasPrefix(norm, "https://") ||
		strings.HasPrefix(norm, "mailto:")
}

// computeMatchScore rates how well a raw result matches the query: word
// overlap with the title dominates, with flat bonuses for having an
// image, a rating, reviews and a price.
func computeMatchScore(result *entities.SearchResult, query string) float64 {
	score := 0.0

	queryWords := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(query)) {
		queryWords[w] = struct{}{}
	}
	titleWords := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(result.Title)) {
		titleWords[w] = struct{}{}
	}
	if len(queryWords) > 0 {
		overlap := 0
		for w := range queryWords {
			if _, ok := titleWords[w]; ok {
				overlap++
			}
		}
		score += 0.4 * float64(overlap) / float64(len(queryWords))
	}

	if result.ImageURL != "" {
		score += 0.15
	}
	if result.Rating != nil && *result.Rating > 0 {
		score += 0.15
	}
	if result.ReviewsCount != nil && *result.ReviewsCount > 0 {
		score += 0.15
	}
	if result.Price != nil && *result.Price > 0 {
		score += 0.15
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
