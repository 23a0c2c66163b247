package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/urlassay/urlassay/pkg/events"
)

const aggregateType = "Analysis"

// AnalysisCompleted is emitted once for every finished URL analysis,
// including degraded ones where every signal source failed.
type AnalysisCompleted struct {
	events.BaseEvent

	AnalysisID uuid.UUID `json:"analysis_id"`
	URL        string    `json:"url"`
	RiskScore  float64   `json:"risk_score"`
	RiskLevel  string    `json:"risk_level"`
	Degraded   bool      `json:"degraded"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// NewAnalysisCompleted creates an AnalysisCompleted event.
func NewAnalysisCompleted(analysisID uuid.UUID, url string, riskScore float64, riskLevel string, degraded bool, analyzedAt time.Time) AnalysisCompleted {
	return AnalysisCompleted{
		BaseEvent:  events.NewBaseEvent("AnalysisCompleted", analysisID, aggregateType),
		AnalysisID: analysisID,
		URL:        url,
		RiskScore:  riskScore,
		RiskLevel:  riskLevel,
		Degraded:   degraded,
		AnalyzedAt: analyzedAt,
	}
}

// HighRiskDetected is emitted in addition to AnalysisCompleted when the
// analysis classifies a URL as high risk.
type HighRiskDetected struct {
	events.BaseEvent

	AnalysisID uuid.UUID `json:"analysis_id"`
	URL        string    `json:"url"`
	RiskScore  float64   `json:"risk_score"`
	TopFactors []string  `json:"top_factors"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// NewHighRiskDetected creates a HighRiskDetected event.
func NewHighRiskDetected(analysisID uuid.UUID, url string, riskScore float64, topFactors []string, analyzedAt time.Time) HighRiskDetected {
	return HighRiskDetected{
		BaseEvent:  events.NewBaseEvent("HighRiskDetected", analysisID, aggregateType),
		AnalysisID: analysisID,
		URL:        url,
		RiskScore:  riskScore,
		TopFactors: topFactors,
		AnalyzedAt: analyzedAt,
	}
}
