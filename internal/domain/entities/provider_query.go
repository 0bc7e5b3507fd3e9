package entities

// ProviderQuery is the provider-specific query payload sent to executors.
type ProviderQuery struct {
	ProviderID string            `json:"provider_id"`
	Query      string            `json:"query"`
	Filters    map[string]any    `json:"filters,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ProviderQueryMap collects per-provider queries for auditing and persistence.
type ProviderQueryMap struct {
	Queries map[string]ProviderQuery `json:"queries"`
}

// NewProviderQueryMap returns an empty, initialized query map.
func NewProviderQueryMap() ProviderQueryMap {
	return ProviderQueryMap{Queries: map[string]ProviderQuery{}}
}

// Add stores a query keyed by its provider id.
func (m *ProviderQueryMap) Add(query ProviderQuery) {
	if m.Queries == nil {
		m.Queries = map[string]ProviderQuery{}
	}
	m.Queries[query.ProviderID] = query
}

// Get returns the query for a provider id, if present.
func (m *ProviderQueryMap) Get(providerID string) (ProviderQuery, bool) {
	q, ok := m.Queries[providerID]
	return q, ok
}
