package services

import (
	"regexp"
	"strings"

	apperrors "github.com/kyrelabs/dealsource/pkg/errors"
)

// SafetyStatus classifies a query against the safety rules.
type SafetyStatus string

const (
	SafetyStatusSafe        SafetyStatus = "safe"
	SafetyStatusNeedsReview SafetyStatus = "needs_review"
	SafetyStatusBlocked     SafetyStatus = "blocked"
)

const (
	blockedReason   = "This request violates our safety policies."
	sensitiveReason = "This request involves a sensitive category and requires manual verification."
)

// SafetyResult is the outcome of a safety check.
type SafetyResult struct {
	Status SafetyStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`
}

// Err converts a blocked check into a typed error for callers that
// propagate failures instead of inspecting the status. Safe and
// needs_review checks return nil; review handling is a policy decision
// left to the caller.
func (r SafetyResult) Err() error {
	if r.Status == SafetyStatusBlocked {
		return apperrors.NewBlockedError(r.Reason)
	}
	return nil
}

// Hard-blocked categories: illegal or highly abusive requests.
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(cp|csam)\b`),
	regexp.MustCompile(`\b(underage|minor|child)\s+(sex|escort|companion)\b`),
	regexp.MustCompile(`\b(hitman|murder|kill)\s+for\s+hire\b`),
	regexp.MustCompile(`\bhire\s+(a\s+)?hitman\b`),
	regexp.MustCompile(`\b(bomb|explosive)\s+making\b`),
	regexp.MustCompile(`\b(meth|heroin|fentanyl|cocaine)\b`),
	regexp.MustCompile(`\b(trafficking|smuggling)\b`),
}

// High-risk categories that need manual review before searching.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(escort|companion|massage|body\s*rub)\b`),
	regexp.MustCompile(`\b(adult|xxx|porn)\b`),
	regexp.MustCompile(`\b(weapon|firearm|gun|ammo)\b`),
	regexp.MustCompile(`\b(drug|pill|prescription)\b`),
	regexp.MustCompile(`\bcupcakes?\b`),
}

// SafetyService gates queries before any provider is called. Blocked rules
// win over sensitive rules.
type SafetyService struct {
	extraSensitive []*regexp.Regexp
}

// NewSafetyService creates a safety service. extraSensitiveTerms lets
// deployments add literal terms to the sensitive list via configuration.
func NewSafetyService(extraSensitiveTerms []string) *SafetyService {
	var extra []*regexp.Regexp
	for _, term := range extraSensitiveTerms {
		term = strings.TrimSpace(strings.ToLower(term))
		if term == "" {
			continue
		}
		extra = append(extra, regexp.MustCompile(`\b`+regexp.QuoteMeta(term)+`\b`))
	}
	return &SafetyService{extraSensitive: extra}
}

// CheckSafety classifies a query as safe, needs_review or blocked.
func (s *SafetyService) CheckSafety(query string) SafetyResult {
	queryLower := strings.ToLower(query)

	for _, pattern := range blockedPatterns {
		if pattern.MatchString(queryLower) {
			return SafetyResult{Status: SafetyStatusBlocked, Reason: blockedReason}
		}
	}

	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(queryLower) {
			return SafetyResult{Status: SafetyStatusNeedsReview, Reason: sensitiveReason}
		}
	}
	for _, pattern := range s.extraSensitive {
		if pattern.MatchString(queryLower) {
			return SafetyResult{Status: SafetyStatusNeedsReview, Reason: sensitiveReason}
		}
	}

	return SafetyResult{Status: SafetyStatusSafe}
}
