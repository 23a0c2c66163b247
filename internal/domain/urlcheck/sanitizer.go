package urlcheck

import (
	"net/url"
	"strings"
)

// Change kinds recorded by the sanitizer.
const (
	ChangeCaseNormalized     = "case-normalized"
	ChangeUpgradedToHTTPS    = "upgraded-to-https"
	ChangeStrippedWWW        = "stripped-www"
	ChangeRemovedTracking    = "removed-tracking-params"
	ChangeStrippedFragment   = "stripped-fragment"
	ChangeEncodingNormalized = "encoding-normalized"
)

// trackingParams are query parameters that identify the visitor or campaign
// rather than the resource. Matched exactly; utm_* is matched by prefix.
var trackingParams = map[string]bool{
	"fbclid":   true,
	"gclid":    true,
	"dclid":    true,
	"msclkid":  true,
	"igshid":   true,
	"mc_eid":   true,
	"mc_cid":   true,
	"ref":      true,
	"ref_src":  true,
	"yclid":    true,
	"_hsenc":   true,
	"_hsmi":    true,
	"vero_id":  true,
	"oly_enc_id": true,
}

// SanitizeOptions toggles each sanitization step independently.
type SanitizeOptions struct {
	RemoveTrackingParams bool
	// ExtraTrackingParams extends the builtin tracking-parameter list.
	ExtraTrackingParams []string
	UpgradeToHTTPS      bool
	StripFragment       bool
	NormalizeEncoding   bool
	NormalizeCase       bool
	StripWWW            bool
}

// DefaultSanitizeOptions enables every step.
func DefaultSanitizeOptions() SanitizeOptions {
	return SanitizeOptions{
		RemoveTrackingParams: true,
		UpgradeToHTTPS:       true,
		StripFragment:        true,
		NormalizeEncoding:    true,
		NormalizeCase:        true,
		StripWWW:             true,
	}
}

// Change records one applied sanitization step.
type Change struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// SanitizationResult is the outcome of sanitizing one validated URL.
// Sanitization is idempotent: applying it to Sanitized yields no changes.
type SanitizationResult struct {
	Sanitized   string   `json:"sanitized"`
	Original    string   `json:"original"`
	WasModified bool     `json:"wasModified"`
	Changes     []Change `json:"changes"`
}

// Sanitize normalizes a validated URL. Each applied change is recorded in
// order; WasModified is true iff at least one step altered the URL.
func Sanitize(validated string, opts SanitizeOptions) SanitizationResult {
	result := SanitizationResult{Original: validated, Sanitized: validated}

	u, err := url.Parse(validated)
	if err != nil || u.Host == "" {
		// Callers hand us validated URLs; anything else passes through.
		return result
	}

	record := func(kind, detail string) {
		result.Changes = append(result.Changes, Change{Kind: kind, Detail: detail})
	}

	if opts.NormalizeCase {
		lowerScheme := strings.ToLower(u.Scheme)
		lowerHost := strings.ToLower(u.Host)
		if lowerScheme != u.Scheme || lowerHost != u.Host {
			u.Scheme = lowerScheme
			u.Host = lowerHost
			record(ChangeCaseNormalized, "lower-cased scheme and host")
		}
	}

	if opts.UpgradeToHTTPS && u.Scheme == "http" {
		u.Scheme = "https"
		record(ChangeUpgradedToHTTPS, "http upgraded to https")
	}

	if opts.StripWWW {
		host := u.Hostname()
		if stripped, ok := strings.CutPrefix(host, "www."); ok && strings.Contains(stripped, ".") {
			if port := u.Port(); port != "" {
				u.Host = stripped + ":" + port
			} else {
				u.Host = stripped
			}
			record(ChangeStrippedWWW, "removed leading www. label")
		}
	}

	if opts.RemoveTrackingParams && u.RawQuery != "" {
		kept, removed := filterTracking(u.RawQuery, opts.ExtraTrackingParams)
		if len(removed) > 0 {
			u.RawQuery = kept
			record(ChangeRemovedTracking, strings.Join(removed, ","))
		}
	}

	if opts.StripFragment && u.Fragment != "" {
		u.Fragment = ""
		u.RawFragment = ""
		record(ChangeStrippedFragment, "removed fragment")
	}

	if opts.NormalizeEncoding {
		normPath := normalizePercentEncoding(u.EscapedPath())
		if normPath != u.EscapedPath() {
			u.RawPath = normPath
			if unescaped, err := url.PathUnescape(normPath); err == nil {
				u.Path = unescaped
			}
			record(ChangeEncodingNormalized, "normalized path encoding")
		}
		normQuery := normalizePercentEncoding(u.RawQuery)
		if normQuery != u.RawQuery {
			u.RawQuery = normQuery
			record(ChangeEncodingNormalized, "normalized query encoding")
		}
	}

	result.Sanitized = u.String()
	result.WasModified = len(result.Changes) > 0
	return result
}

// filterTracking drops tracking parameters from a raw query string while
// preserving the order and encoding of the remaining pairs.
func filterTracking(rawQuery string, extra []string) (kept string, removed []string) {
	extraSet := make(map[string]bool, len(extra))
	for _, p := range extra {
		extraSet[strings.ToLower(p)] = true
	}

	var keptPairs []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey := pair
		if i := strings.Index(pair, "="); i >= 0 {
			rawKey = pair[:i]
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		key = strings.ToLower(key)

		if trackingParams[key] || extraSet[key] || strings.HasPrefix(key, "utm_") {
			removed = append(removed, key)
			continue
		}
		keptPairs = append(keptPairs, pair)
	}
	return strings.Join(keptPairs, "&"), removed
}

// normalizePercentEncoding applies RFC 3986 §6.2.2: percent-encoding hex
// digits are upper-cased and encoded unreserved characters are decoded.
// Both transformations are idempotent.
func normalizePercentEncoding(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' || i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			b.WriteByte(c)
			continue
		}
		decoded := unhex(s[i+1])<<4 | unhex(s[i+2])
		if isUnreserved(decoded) {
			b.WriteByte(decoded)
		} else {
			b.WriteByte('%')
			b.WriteByte(upperHex(s[i+1]))
			b.WriteByte(upperHex(s[i+2]))
		}
		i += 2
	}
	return b.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func upperHex(c byte) byte {
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 'A'
	}
	return c
}

func isUnreserved(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
