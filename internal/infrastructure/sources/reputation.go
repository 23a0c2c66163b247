// Package sources provides the concrete signal source clients behind the
// port.SignalSource interface. Each client returns normalized evidence in
// [0,1] and leaves retry, timeout and caching to the orchestrator.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/signal"
)

// abuseTLDs lists top-level domains with disproportionate abuse rates.
var abuseTLDs = map[string]bool{
	"xyz":     true,
	"top":     true,
	"click":   true,
	"loan":    true,
	"work":    true,
	"tk":      true,
	"ml":      true,
	"ga":      true,
	"cf":      true,
	"gq":      true,
	"buzz":    true,
	"monster": true,
}

// knownGoodHosts are widely used infrastructure hosts that never warrant a
// heuristic suspicion score.
var knownGoodHosts = map[string]bool{
	"cdn.jsdelivr.net":     true,
	"cdnjs.cloudflare.com": true,
	"unpkg.com":            true,
	"fonts.googleapis.com": true,
	"ajax.googleapis.com":  true,
	"code.jquery.com":      true,
	"github.com":           true,
	"raw.githubusercontent.com": true,
}

const dgaEntropyThreshold = 3.5

// ReputationSource scores a domain's reputation. When a remote reputation
// endpoint is configured its verdict wins; otherwise local heuristics
// (abuse TLDs, DGA-looking labels) decide.
type ReputationSource struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ port.SignalSource = (*ReputationSource)(nil)

// NewReputationSource builds a reputation client. endpoint may be empty, in
// which case only the local heuristics run.
func NewReputationSource(endpoint, apiKey string, logger *slog.Logger) *ReputationSource {
	return &ReputationSource{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (s *ReputationSource) ID() string { return signal.SourceReputation }

// Lookup queries the remote reputation service when configured and falls
// back to heuristics when it is not. A failing remote call is an error so
// the orchestrator can retry it; heuristics never fail.
func (s *ReputationSource) Lookup(ctx context.Context, domain string) (*signal.Payload, error) {
	if s.endpoint != "" {
		return s.remoteLookup(ctx, domain)
	}
	return s.heuristicLookup(domain), nil
}

// remoteVerdict is the JSON shape of the external reputation API response.
type remoteVerdict struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

func (s *ReputationSource) remoteLookup(ctx context.Context, domain string) (*signal.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?domain="+domain, nil)
	if err != nil {
		return nil, fmt.Errorf("reputation request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reputation lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("reputation service %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var verdict remoteVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("decode reputation response: %w", err)
	}

	return &signal.Payload{
		RiskScore: clampUnit(verdict.Score),
		Summary:   verdict.Summary,
		Details:   map[string]string{"provider": "remote"},
	}, nil
}

func (s *ReputationSource) heuristicLookup(domain string) *signal.Payload {
	host := strings.ToLower(domain)
	if knownGoodHosts[host] {
		return &signal.Payload{
			RiskScore: 0.02,
			Summary:   "domain is on the known-good list",
			Details:   map[string]string{"provider": "heuristic", "classification": "known_good"},
		}
	}

	score := 0.1
	var flags []string

	if abuseTLDs[lastLabel(host)] {
		score += 0.35
		flags = append(flags, "abuse_tld")
	}
	if sub := firstSubdomainLabel(host); len(sub) > 8 && shannonEntropy(sub) > dgaEntropyThreshold {
		score += 0.35
		flags = append(flags, "possible_dga")
	}

	summary := "no reputation flags for domain"
	if len(flags) > 0 {
		summary = "heuristic flags: " + strings.Join(flags, ", ")
	}

	return &signal.Payload{
		RiskScore: clampUnit(score),
		Summary:   summary,
		Details:   map[string]string{"provider": "heuristic", "flags": strings.Join(flags, ",")},
	}
}

// shannonEntropy returns bits per character; high values on long labels
// suggest machine-generated (DGA) names.
func shannonEntropy(s string) float64 {
	freq := make(map[rune]float64)
	for _, c := range s {
		freq[c]++
	}
	length := float64(len([]rune(s)))
	if length == 0 {
		return 0
	}
	entropy := 0.0
	for _, count := range freq {
		p := count / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func lastLabel(host string) string {
	parts := strings.Split(host, ".")
	return parts[len(parts)-1]
}

func firstSubdomainLabel(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return ""
	}
	return parts[0]
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
