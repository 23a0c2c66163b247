package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/urlassay/urlassay/internal/domain/event"
	"github.com/urlassay/urlassay/internal/domain/valueobject"
	"github.com/urlassay/urlassay/pkg/events"
)

// RiskFactor is one scored contribution to the final risk assessment.
// Weight is the effective (possibly redistributed) weight used for this
// analysis; Description explains the evidence in plain language.
type RiskFactor struct {
	Type        string  `json:"type"`
	RawScore    float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// Contribution is this factor's share of the weighted sum.
func (f RiskFactor) Contribution() float64 {
	return f.RawScore * f.Weight
}

// Analysis is the aggregate root for one URL risk analysis. It starts
// unscored; Assess applies the calculator's outcome, deriving the risk
// level and emitting domain events.
type Analysis struct {
	events.EventCollector

	id          uuid.UUID
	url         string
	riskScore   float64
	riskLevel   valueobject.RiskLevel
	factors     []RiskFactor
	explanation string
	degraded    bool
	analyzedAt  time.Time
	createdAt   time.Time
}

// NewAnalysis creates a new analysis for an already-validated URL.
func NewAnalysis(url string) (*Analysis, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}

	return &Analysis{
		id:        uuid.New(),
		url:       url,
		riskLevel: valueobject.RiskLevelLow,
		createdAt: time.Now().UTC(),
	}, nil
}

// Assess applies a normalized risk score and its factors, determining the
// risk level. This is the core domain operation; it always succeeds for a
// score in [0,1] even when every factor reflects missing evidence.
func (a *Analysis) Assess(riskScore float64, factors []RiskFactor, explanation string, degraded bool) error {
	if riskScore < 0 || riskScore > 1 {
		return fmt.Errorf("risk score must be in [0,1], got %g", riskScore)
	}

	a.riskScore = riskScore
	a.factors = factors
	a.explanation = explanation
	a.degraded = degraded
	a.riskLevel = valueobject.RiskLevelFromScore(riskScore)
	a.analyzedAt = time.Now().UTC()

	a.Record(event.NewAnalysisCompleted(
		a.id, a.url, a.riskScore, a.riskLevel.String(), a.degraded, a.analyzedAt,
	))

	if a.riskLevel.Equal(valueobject.RiskLevelHigh) {
		top := make([]string, 0, 2)
		for _, f := range topFactors(factors, 2) {
			top = append(top, f.Type)
		}
		a.Record(event.NewHighRiskDetected(a.id, a.url, a.riskScore, top, a.analyzedAt))
	}

	return nil
}

// topFactors returns the n factors with the largest weighted contribution,
// preserving the original order among ties.
func topFactors(factors []RiskFactor, n int) []RiskFactor {
	sorted := make([]RiskFactor, len(factors))
	copy(sorted, factors)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Contribution() > sorted[j-1].Contribution(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// --- Accessors ---

func (a *Analysis) ID() uuid.UUID                     { return a.id }
func (a *Analysis) URL() string                       { return a.url }
func (a *Analysis) RiskScore() float64                { return a.riskScore }
func (a *Analysis) RiskLevel() valueobject.RiskLevel  { return a.riskLevel }
func (a *Analysis) Factors() []RiskFactor             { return a.factors }
func (a *Analysis) Explanation() string               { return a.explanation }
func (a *Analysis) Degraded() bool                    { return a.degraded }
func (a *Analysis) AnalyzedAt() time.Time             { return a.analyzedAt }
func (a *Analysis) CreatedAt() time.Time              { return a.createdAt }
