package utils

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// defaultTrackingKeys are query parameters stripped during canonicalization.
var defaultTrackingKeys = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"gclid":        {},
	"fbclid":       {},
	"msclkid":      {},
	"yclid":        {},
	"mc_eid":       {},
	"mc_cid":       {},
	"igshid":       {},
	"spm":          {},
	"ref":          {},
	"affid":        {},
	"affidname":    {},
}

var defaultTrackingPrefixes = []string{"utm", "ga_", "icid", "mkt_"}

var multiSlashPattern = regexp.MustCompile(`/{2,}`)

// EnsureAbsoluteURL turns scheme-relative, host-relative, and bare-host URLs
// into absolute ones. Host-relative paths are resolved against defaultHost.
func EnsureAbsoluteURL(raw, defaultHost string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lowered := strings.ToLower(raw)
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if strings.HasPrefix(raw, "www.") {
		return "https://" + raw
	}
	if strings.HasPrefix(raw, "/") {
		if defaultHost == "" {
			defaultHost = "www.google.com"
		}
		return "https://" + defaultHost + raw
	}
	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}

type queryPair struct {
	key   string
	value string
}

// CanonicalizeURL generates a stable canonical URL for offer deduplication.
//
// The canonical form enforces https, lowercases the host, removes tracking
// params and fragments, normalizes repeated slashes, deduplicates query
// params, and sorts them. Applying it twice yields the same string.
func CanonicalizeURL(raw string) string {
	absolute := EnsureAbsoluteURL(raw, "")
	if absolute == "" {
		return ""
	}

	parsed, err := url.Parse(absolute)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		if host[idx+1:] == "443" {
			host = host[:idx]
		}
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	path = multiSlashPattern.ReplaceAllString(path, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	pairs := parseQueryPairs(parsed.RawQuery)
	pairs = dropTrackingParams(pairs)
	pairs = dedupeParams(pairs)
	sort.SliceStable(pairs, func(i, j int) bool {
		return strings.ToLower(pairs[i].key) < strings.ToLower(pairs[j].key)
	})

	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(host)
	b.WriteString(path)
	if len(pairs) > 0 {
		b.WriteByte('?')
		for i, p := range pairs {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.value))
		}
	}
	return b.String()
}

// parseQueryPairs splits a raw query preserving order and dropping blank values.
func parseQueryPairs(rawQuery string) []queryPair {
	if rawQuery == "" {
		return nil
	}
	var pairs []queryPair
	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil || decodedKey == "" {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil || decodedValue == "" {
			continue
		}
		pairs = append(pairs, queryPair{key: decodedKey, value: decodedValue})
	}
	return pairs
}

func dropTrackingParams(pairs []queryPair) []queryPair {
	cleaned := pairs[:0]
	for _, p := range pairs {
		keyLower := strings.ToLower(p.key)
		if _, tracked := defaultTrackingKeys[keyLower]; tracked {
			continue
		}
		skip := false
		for _, prefix := range defaultTrackingPrefixes {
			if strings.HasPrefix(keyLower, prefix) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return cleaned
}

func dedupeParams(pairs []queryPair) []queryPair {
	seen := make(map[queryPair]struct{}, len(pairs))
	deduped := pairs[:0]
	for _, p := range pairs {
		signature := queryPair{key: strings.ToLower(p.key), value: p.value}
		if _, dup := seen[signature]; dup {
			continue
		}
		seen[signature] = struct{}{}
		deduped = append(deduped, p)
	}
	return deduped
}

// MerchantDomain extracts the merchant domain from a URL, without a www prefix.
func MerchantDomain(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	domain := strings.ToLower(parsed.Host)
	return strings.TrimPrefix(domain, "www.")
}

var secretParamPattern = regexp.MustCompile(`(?i)((?:api_?key|key|token|client_secret|access_token|apikey|password|signature)=)[^&\s"']+`)

var bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._~+/=-]+`)

// RedactSecrets masks credential-looking values in free-form text so that
// provider error strings can be surfaced to logs and status snapshots.
func RedactSecrets(text string) string {
	redacted := secretParamPattern.ReplaceAllString(text, "${1}***")
	return bearerPattern.ReplaceAllString(redacted, "${1}***")
}
