package entities

// ProviderStatus is the terminal state of one provider call during a fan-out.
type ProviderStatus string

const (
	ProviderStatusOK          ProviderStatus = "ok"
	ProviderStatusError       ProviderStatus = "error"
	ProviderStatusTimeout     ProviderStatus = "timeout"
	ProviderStatusExhausted   ProviderStatus = "exhausted"
	ProviderStatusRateLimited ProviderStatus = "rate_limited"
)

// ProviderStatusSnapshot records the outcome of exactly one provider call.
type ProviderStatusSnapshot struct {
	ProviderID  string         `json:"provider_id"`
	Status      ProviderStatus `json:"status"`
	ResultCount int            `json:"result_count"`
	LatencyMS   int64          `json:"latency_ms"`
	Message     string         `json:"message,omitempty"`
}
