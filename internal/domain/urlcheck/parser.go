package urlcheck

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// QueryParam is one key/value pair from the query string, in original order.
type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Components holds the ordered structural pieces of a URL.
type Components struct {
	PathParts   []string     `json:"pathParts"`
	QueryParams []QueryParam `json:"queryParams"`
}

// ParsedURL is the structural decomposition of a URL. Domain is the
// registrable domain (eTLD+1) for named hosts, or the literal for IP hosts.
type ParsedURL struct {
	Domain     string     `json:"domain"`
	Subdomain  string     `json:"subdomain,omitempty"`
	IsIP       bool       `json:"isIP"`
	Components Components `json:"components"`
}

// Parse decomposes a URL into its structural components. It fails only on
// structurally invalid input, which should not occur for validated URLs;
// callers degrade gracefully and continue with the validated URL alone.
func Parse(raw string) (ParsedURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedURL{}, fmt.Errorf("parse url: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		return ParsedURL{}, fmt.Errorf("parse url: no host in %q", raw)
	}

	parsed := ParsedURL{
		Components: Components{
			PathParts:   splitPath(u.EscapedPath()),
			QueryParams: splitQuery(u.RawQuery),
		},
	}

	if net.ParseIP(host) != nil {
		parsed.Domain = host
		parsed.IsIP = true
		return parsed, nil
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Hosts without a public suffix (single-label, exotic TLDs) keep the
		// whole host as the domain.
		parsed.Domain = host
		return parsed, nil
	}

	parsed.Domain = registrable
	if prefix := strings.TrimSuffix(host, registrable); prefix != "" {
		parsed.Subdomain = strings.TrimSuffix(prefix, ".")
	}
	return parsed, nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// splitQuery parses a raw query preserving order and duplicates, which
// url.Values cannot do.
func splitQuery(rawQuery string) []QueryParam {
	if rawQuery == "" {
		return nil
	}
	var params []QueryParam
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue := pair, ""
		if i := strings.Index(pair, "="); i >= 0 {
			rawKey, rawValue = pair[:i], pair[i+1:]
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			value = rawValue
		}
		params = append(params, QueryParam{Key: key, Value: value})
	}
	return params
}
