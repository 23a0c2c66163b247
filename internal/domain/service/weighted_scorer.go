package service

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/urlassay/urlassay/internal/domain/model"
	"github.com/urlassay/urlassay/internal/domain/urlcheck"
	"github.com/urlassay/urlassay/internal/domain/valueobject"
)

// Structural factor type names, in their fixed scoring order.
const (
	FactorInsecureProtocol = "insecure-protocol"
	FactorIPLiteralHost    = "ip-literal-host"
	FactorURLDepth         = "url-depth"
	FactorQueryParams      = "query-params"
	FactorTrackingParams   = "tracking-params"
)

// Path depth and query-parameter ramps: no risk below the floor, full risk
// at the ceiling.
const (
	depthFloor = 3
	depthCeil  = 8
	queryFloor = 4
	queryCeil  = 12
)

// Weights is the configured factor weight table. The defaults sum to 1.0 so
// the clamped weighted sum lands in [0,1] without further normalization.
type Weights struct {
	InsecureProtocol float64
	IPLiteralHost    float64
	URLDepth         float64
	QueryParams      float64
	TrackingParams   float64
	// Sources maps source IDs to their factor weight. Configured sources
	// absent from the map get DefaultSourceWeight.
	Sources map[string]float64
}

// DefaultSourceWeight applies to configured sources without an explicit weight.
const DefaultSourceWeight = 0.15

// DefaultWeights returns the production weight table.
func DefaultWeights() Weights {
	return Weights{
		InsecureProtocol: 0.08,
		IPLiteralHost:    0.07,
		URLDepth:         0.04,
		QueryParams:      0.03,
		TrackingParams:   0.03,
		Sources: map[string]float64{
			"reputation":  0.25,
			"domain-age":  0.15,
			"tls-posture": 0.15,
			"ai-judgment": 0.20,
		},
	}
}

func (w Weights) sourceWeight(id string) float64 {
	if weight, ok := w.Sources[id]; ok {
		return weight
	}
	return DefaultSourceWeight
}

// WeightedScorer is the scoring calculator: it folds structural and
// per-source factors into a normalized risk score under the redistribute
// missing-data policy.
type WeightedScorer struct {
	weights Weights
	logger  *slog.Logger
}

// NewWeightedScorer creates a WeightedScorer with the given weight table.
func NewWeightedScorer(weights Weights, logger *slog.Logger) *WeightedScorer {
	return &WeightedScorer{weights: weights, logger: logger}
}

// candidate is one configured factor before redistribution.
type candidate struct {
	factorType  string
	weight      float64
	available   bool
	rawScore    float64
	description string
}

// Score computes the assessed Analysis for the collected pipeline output.
// An Analysis is produced even when every signal source failed.
func (s *WeightedScorer) Score(input ScoreInput) (*model.Analysis, error) {
	candidates := s.structuralCandidates(input)
	candidates = append(candidates, s.sourceCandidates(input)...)

	var totalConfigured, totalAvailable float64
	for _, c := range candidates {
		totalConfigured += c.weight
		if c.available {
			totalAvailable += c.weight
		}
	}

	// Redistribute: rescale available weights so their sum equals the sum
	// of all configured weights, preserving relative contributions.
	scale := 1.0
	if totalAvailable > 0 {
		scale = totalConfigured / totalAvailable
	}

	factors := make([]model.RiskFactor, 0, len(candidates))
	weightedSum := 0.0
	for _, c := range candidates {
		if !c.available {
			continue
		}
		factor := model.RiskFactor{
			Type:        c.factorType,
			RawScore:    c.rawScore,
			Weight:      c.weight * scale,
			Description: c.description,
		}
		weightedSum += factor.Contribution()
		factors = append(factors, factor)
	}

	riskScore := clamp01(weightedSum)

	degraded := false
	for _, r := range input.Orchestration.Results {
		if !r.OK() {
			degraded = true
			break
		}
	}

	analysis, err := model.NewAnalysis(input.URL)
	if err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}

	explanation := s.explain(riskScore, factors, input.Sanitization)
	if err := analysis.Assess(riskScore, factors, explanation, degraded); err != nil {
		return nil, fmt.Errorf("assess analysis: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("scored analysis",
			slog.Float64("risk_score", riskScore),
			slog.String("risk_level", analysis.RiskLevel().String()),
			slog.Int("factors", len(factors)),
			slog.Bool("degraded", degraded),
		)
	}

	return analysis, nil
}

// structuralCandidates derives the locally-computable factors, in fixed order.
func (s *WeightedScorer) structuralCandidates(input ScoreInput) []candidate {
	insecure := candidate{
		factorType:  FactorInsecureProtocol,
		weight:      s.weights.InsecureProtocol,
		available:   true,
		description: "URL uses encrypted transport",
	}
	if strings.HasPrefix(strings.ToLower(input.URL), "http://") {
		insecure.rawScore = 1
		insecure.description = "URL uses unencrypted http"
	}

	ipLiteral := candidate{factorType: FactorIPLiteralHost, weight: s.weights.IPLiteralHost, description: "host is a named domain"}
	depth := candidate{factorType: FactorURLDepth, weight: s.weights.URLDepth, description: "path depth is unremarkable"}
	query := candidate{factorType: FactorQueryParams, weight: s.weights.QueryParams, description: "query parameter count is unremarkable"}

	if input.Parsed != nil {
		ipLiteral.available = true
		if input.Parsed.IsIP {
			ipLiteral.rawScore = 1
			ipLiteral.description = "host is a raw IP literal"
		}

		depth.available = true
		if d := len(input.Parsed.Components.PathParts); d >= depthFloor {
			depth.rawScore = ramp(d, depthFloor, depthCeil)
			depth.description = fmt.Sprintf("path depth of %d is unusually deep", d)
		}

		query.available = true
		if n := len(input.Parsed.Components.QueryParams); n >= queryFloor {
			query.rawScore = ramp(n, queryFloor, queryCeil)
			query.description = fmt.Sprintf("%d query parameters is unusually many", n)
		}
	}

	tracking := candidate{factorType: FactorTrackingParams, weight: s.weights.TrackingParams, description: "no tracking parameters found"}
	if input.Sanitization != nil {
		tracking.available = true
		for _, change := range input.Sanitization.Changes {
			if change.Kind == urlcheck.ChangeRemovedTracking {
				tracking.rawScore = 1
				tracking.description = "URL carried tracking parameters: " + change.Detail
				break
			}
		}
	}

	return []candidate{insecure, ipLiteral, depth, query, tracking}
}

// sourceCandidates derives one factor per configured signal source, in
// configured order. Sources that did not complete are unavailable and their
// weight is redistributed.
func (s *WeightedScorer) sourceCandidates(input ScoreInput) []candidate {
	candidates := make([]candidate, 0, len(input.Orchestration.Order))
	for _, result := range input.Orchestration.InOrder() {
		c := candidate{
			factorType: result.SourceID,
			weight:     s.weights.sourceWeight(result.SourceID),
		}
		if result.OK() {
			c.available = true
			c.rawScore = clamp01(result.Payload.RiskScore)
			c.description = result.Payload.Summary
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// explain builds the deterministic human-readable summary: risk level, the
// two largest non-zero contributors, and whether sanitization changed the
// input.
func (s *WeightedScorer) explain(riskScore float64, factors []model.RiskFactor, sanitization *urlcheck.SanitizationResult) string {
	level := valueobject.RiskLevelFromScore(riskScore).String()

	ranked := make([]model.RiskFactor, 0, len(factors))
	for _, f := range factors {
		if f.Contribution() > 0 {
			ranked = append(ranked, f)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Contribution() > ranked[j].Contribution()
	})

	var b strings.Builder
	fmt.Fprintf(&b, "The URL was assessed as %s risk (score %.2f).", level, riskScore)

	switch {
	case len(ranked) == 0:
		b.WriteString(" No risk factors contributed to the score.")
	case len(ranked) == 1:
		fmt.Fprintf(&b, " Main factor: %s.", ranked[0].Description)
	default:
		fmt.Fprintf(&b, " Main factors: %s; %s.", ranked[0].Description, ranked[1].Description)
	}

	if sanitization != nil && sanitization.WasModified {
		b.WriteString(" The input URL was normalized during sanitization.")
	}

	return b.String()
}

// ramp maps n linearly from 0 at floor-1 to 1 at ceil.
func ramp(n, floor, ceil int) float64 {
	if n >= ceil {
		return 1
	}
	return float64(n-floor+1) / float64(ceil-floor+1)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
