package service

import (
	"github.com/urlassay/urlassay/internal/domain/model"
	"github.com/urlassay/urlassay/internal/domain/signal"
	"github.com/urlassay/urlassay/internal/domain/urlcheck"
)

// ScoreInput carries everything the calculator needs from the pipeline.
// Parsed and Sanitization may be nil when those stages were skipped or
// failed; the calculator degrades by redistributing the affected weights.
type ScoreInput struct {
	// URL is the final URL the analysis ran against.
	URL string
	// Parsed is the structural decomposition, nil if parsing failed.
	Parsed *urlcheck.ParsedURL
	// Sanitization is the sanitizer outcome, nil if sanitization was skipped.
	Sanitization *urlcheck.SanitizationResult
	// Orchestration holds the per-source signal results.
	Orchestration signal.OrchestrationResult
}

// Scorer converts collected signals into an assessed Analysis.
type Scorer interface {
	Score(input ScoreInput) (*model.Analysis, error)
}
