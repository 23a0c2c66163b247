// Package urlcheck implements the input stages of the analysis pipeline:
// validation, sanitization and structural parsing of untrusted URLs.
package urlcheck

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/urlassay/urlassay/internal/domain/valueobject"
)

// DefaultMaxURLLength mirrors the historical IE limit, the common ceiling for
// URLs in the wild.
const DefaultMaxURLLength = 2083

// dangerousSchemes can smuggle executable content into a consumer and are
// rejected as a security risk regardless of the allow-list.
var dangerousSchemes = map[string]bool{
	"javascript": true,
	"data":       true,
	"vbscript":   true,
	"file":       true,
}

// metadataHosts are cloud metadata endpoints, the classic SSRF target.
var metadataHosts = map[string]bool{
	"169.254.169.254":          true,
	"metadata.google.internal": true,
	"metadata.goog":            true,
}

// ValidateOptions controls validation behavior.
type ValidateOptions struct {
	// MaxLength caps the raw URL length; zero means DefaultMaxURLLength.
	MaxLength int
	// AllowedSchemes replaces the default {http, https} allow-list.
	AllowedSchemes []string
	// AllowPrivateHosts disables the SSRF guard for private, loopback and
	// link-local hosts. Intended for tests and internal tooling only.
	AllowPrivateHosts bool
}

// ValidationResult is the immutable outcome of validating one raw URL.
type ValidationResult struct {
	IsValid       bool
	NormalizedURL string
	Err           *valueobject.ValidationError
}

func invalid(kind valueobject.ErrorKind, format string, args ...any) ValidationResult {
	return ValidationResult{Err: valueobject.NewValidationError(kind, format, args...)}
}

// Validate checks a raw URL against the syntactic and security gates, in
// order, short-circuiting on the first failure. On success it returns a
// normalized URL with the scheme defaulted to https, the host lower-cased
// and the default port stripped.
func Validate(raw string, opts ValidateOptions) ValidationResult {
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxURLLength
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return invalid(valueobject.ErrorKindInvalidFormat, "URL is empty")
	}
	if len(trimmed) > maxLength {
		return invalid(valueobject.ErrorKindTooLong, "URL exceeds maximum length of %d characters", maxLength)
	}

	// Control characters anywhere in the raw input are an injection vector
	// (header splitting, log forgery); checked before parsing so the error
	// kind is deterministic.
	if strings.ContainsAny(trimmed, "\x00\r\n\t") {
		return invalid(valueobject.ErrorKindSecurityRisk, "URL contains control characters")
	}

	scheme, ok := splitScheme(trimmed)
	if !ok {
		// No scheme present: assume https.
		trimmed = "https://" + trimmed
		scheme = "https"
	}
	scheme = strings.ToLower(scheme)

	if dangerousSchemes[scheme] {
		return invalid(valueobject.ErrorKindSecurityRisk, "scheme %q is not permitted", scheme)
	}
	if !schemeAllowed(scheme, opts.AllowedSchemes) {
		return invalid(valueobject.ErrorKindUnsupportedProtocol, "scheme %q is not supported", scheme)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return invalid(valueobject.ErrorKindInvalidFormat, "URL cannot be parsed: %v", err)
	}

	host := u.Hostname()
	if host == "" {
		return invalid(valueobject.ErrorKindInvalidDomain, "URL has no host")
	}

	// IDN hosts are converted to their punycode form; a failure here means
	// the host is not a legal domain name.
	asciiHost, err := idna.Lookup.ToASCII(strings.ToLower(host))
	if err != nil {
		if net.ParseIP(host) == nil {
			return invalid(valueobject.ErrorKindInvalidDomain, "host %q is not a valid domain", host)
		}
		asciiHost = host
	}

	if !opts.AllowPrivateHosts {
		if kindErr := ssrfGuard(asciiHost); kindErr != nil {
			return ValidationResult{Err: kindErr}
		}
	}

	// Doubled slashes in the path are a common open-redirect encoding
	// (e.g. https://trusted.example//evil.example).
	if strings.Contains(u.EscapedPath(), "//") {
		return invalid(valueobject.ErrorKindSecurityRisk, "path contains an embedded redirect pattern")
	}

	return ValidationResult{
		IsValid:       true,
		NormalizedURL: normalize(u, scheme, asciiHost),
	}
}

// splitScheme reports the scheme of raw, if one is present. A prefix
// containing a dot is a bare host:port, not a scheme.
func splitScheme(raw string) (string, bool) {
	idx := strings.Index(raw, ":")
	if idx <= 0 {
		return "", false
	}
	candidate := raw[:idx]
	if strings.Contains(candidate, ".") || strings.Contains(candidate, "/") {
		return "", false
	}
	for i, r := range candidate {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-'):
		default:
			return "", false
		}
	}
	return candidate, true
}

func schemeAllowed(scheme string, allowed []string) bool {
	if len(allowed) == 0 {
		return scheme == "http" || scheme == "https"
	}
	for _, s := range allowed {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// ssrfGuard rejects hosts that would let the analysis reach internal
// infrastructure: loopback, private and link-local IP literals, localhost
// names and cloud metadata endpoints.
func ssrfGuard(host string) *valueobject.ValidationError {
	lower := strings.ToLower(host)

	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return valueobject.NewValidationError(valueobject.ErrorKindSecurityRisk,
			"host %q resolves to the local machine", host)
	}
	if metadataHosts[lower] {
		return valueobject.NewValidationError(valueobject.ErrorKindSecurityRisk,
			"host %q is a cloud metadata endpoint", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
			ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return valueobject.NewValidationError(valueobject.ErrorKindSecurityRisk,
				"IP literal %q is not publicly routable", host)
		}
	}

	return nil
}

// normalize rewrites u with the effective scheme, a lower-cased host, the
// default port stripped and a non-empty path.
func normalize(u *url.URL, scheme, host string) string {
	port := u.Port()
	if port == "80" && scheme == "http" || port == "443" && scheme == "https" {
		port = ""
	}

	u.Scheme = scheme
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		// Bare IPv6 literal needs brackets back.
		u.Host = fmt.Sprintf("[%s]", host)
	} else {
		u.Host = host
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
