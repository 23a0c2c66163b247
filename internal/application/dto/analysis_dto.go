// Package dto defines the request/response shapes of the application layer.
package dto

import (
	"time"

	"github.com/urlassay/urlassay/internal/domain/model"
	"github.com/urlassay/urlassay/internal/domain/signal"
	"github.com/urlassay/urlassay/internal/domain/urlcheck"
)

// AnalyzeURLRequest is the input for the AnalyzeURL use case.
type AnalyzeURLRequest struct {
	URL     string         `json:"url"`
	Options AnalyzeOptions `json:"options"`
}

// AnalyzeOptions lets trusted callers skip input stages. Skipping
// validation also skips the SSRF guard, so it is never exposed to
// untrusted clients.
type AnalyzeOptions struct {
	SkipValidation   bool `json:"skipValidation,omitempty"`
	SkipSanitization bool `json:"skipSanitization,omitempty"`
}

// RiskFactorDTO is one scored contribution in the response.
type RiskFactorDTO struct {
	Type        string  `json:"type"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// ValidationDTO reports what the input stages did to the URL.
type ValidationDTO struct {
	Original    string           `json:"original"`
	Final       string           `json:"final"`
	WasModified bool             `json:"wasModified"`
	Changes     []urlcheck.Change `json:"changes,omitempty"`
}

// SourceResultDTO is the per-source outcome included in the response.
type SourceResultDTO struct {
	SourceID  string  `json:"sourceId"`
	Status    string  `json:"status"`
	Summary   string  `json:"summary,omitempty"`
	LatencyMs int64   `json:"latencyMs"`
	FromCache bool    `json:"fromCache,omitempty"`
}

// AnalyzeURLResponse is the output of the AnalyzeURL use case.
type AnalyzeURLResponse struct {
	AnalysisID  string            `json:"analysisId"`
	URL         string            `json:"url"`
	RiskScore   float64           `json:"riskScore"`
	RiskLevel   string            `json:"riskLevel"`
	Factors     []RiskFactorDTO   `json:"factors"`
	Explanation string            `json:"explanation"`
	Degraded    bool              `json:"degraded"`
	Validation  ValidationDTO     `json:"validation"`
	Sources     []SourceResultDTO `json:"sources"`
	AnalyzedAt  time.Time         `json:"analyzedAt"`
}

// FromAnalysis maps the domain aggregate and pipeline context to a response.
func FromAnalysis(a *model.Analysis, validation ValidationDTO, orchestration signal.OrchestrationResult) AnalyzeURLResponse {
	factors := make([]RiskFactorDTO, 0, len(a.Factors()))
	for _, f := range a.Factors() {
		factors = append(factors, RiskFactorDTO{
			Type:        f.Type,
			Score:       f.RawScore,
			Weight:      f.Weight,
			Description: f.Description,
		})
	}

	sources := make([]SourceResultDTO, 0, len(orchestration.Order))
	for _, r := range orchestration.InOrder() {
		s := SourceResultDTO{
			SourceID:  r.SourceID,
			Status:    string(r.Status),
			LatencyMs: r.LatencyMs,
			FromCache: r.FromCache,
		}
		if r.Payload != nil {
			s.Summary = r.Payload.Summary
		}
		sources = append(sources, s)
	}

	return AnalyzeURLResponse{
		AnalysisID:  a.ID().String(),
		URL:         a.URL(),
		RiskScore:   a.RiskScore(),
		RiskLevel:   a.RiskLevel().String(),
		Factors:     factors,
		Explanation: a.Explanation(),
		Degraded:    a.Degraded(),
		Validation:  validation,
		Sources:     sources,
		AnalyzedAt:  a.AnalyzedAt(),
	}
}
