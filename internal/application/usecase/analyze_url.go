// Package usecase wires the analysis pipeline stages into application
// operations.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/urlassay/urlassay/internal/application/dto"
	"github.com/urlassay/urlassay/internal/application/orchestrator"
	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/service"
	"github.com/urlassay/urlassay/internal/domain/urlcheck"
	"github.com/urlassay/urlassay/pkg/observability"
)

// AnalyzeURL runs the full pipeline for one URL: validate, sanitize, parse,
// gather signals, score, publish events.
type AnalyzeURL struct {
	orchestrator *orchestrator.Orchestrator
	scorer       service.Scorer
	publisher    port.EventPublisher
	logger       *slog.Logger
	metrics      *observability.PipelineMetrics
}

// NewAnalyzeURL creates the use case. metrics may be nil.
func NewAnalyzeURL(
	orch *orchestrator.Orchestrator,
	scorer service.Scorer,
	publisher port.EventPublisher,
	logger *slog.Logger,
	metrics *observability.PipelineMetrics,
) *AnalyzeURL {
	return &AnalyzeURL{
		orchestrator: orch,
		scorer:       scorer,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
	}
}

// Execute runs the analysis pipeline. Validation failures surface as a
// typed *valueobject.ValidationError; anything past validation degrades
// instead of failing, so a reachable pipeline always produces a verdict.
func (uc *AnalyzeURL) Execute(ctx context.Context, req dto.AnalyzeURLRequest) (resp dto.AnalyzeURLResponse, err error) {
	defer func() {
		if p := recover(); p != nil {
			uc.logger.Error("analysis pipeline panicked",
				slog.String("url", observability.RedactURL(req.URL)),
				slog.Any("panic", p),
			)
			err = fmt.Errorf("internal analysis failure")
		}
	}()

	finalURL := req.URL
	validation := dto.ValidationDTO{Original: req.URL, Final: req.URL}

	// 1. Validation gates untrusted input; the SSRF guard lives here.
	if !req.Options.SkipValidation {
		result := urlcheck.Validate(req.URL, urlcheck.ValidateOptions{})
		if !result.IsValid {
			if uc.metrics != nil {
				uc.metrics.ValidationFail.WithLabelValues(string(result.Err.Kind)).Inc()
			}
			return dto.AnalyzeURLResponse{}, result.Err
		}
		finalURL = result.NormalizedURL
	}

	// 2. Sanitization normalizes the validated URL; its outcome feeds the
	// tracking-parameter factor.
	var sanitization *urlcheck.SanitizationResult
	if !req.Options.SkipSanitization {
		s := urlcheck.Sanitize(finalURL, urlcheck.DefaultSanitizeOptions())
		sanitization = &s
		finalURL = s.Sanitized
		validation.WasModified = s.WasModified || finalURL != req.URL
		validation.Changes = s.Changes
	} else {
		validation.WasModified = finalURL != req.URL
	}
	validation.Final = finalURL

	// 3. Parsing is best-effort: a failure drops the structural factors via
	// weight redistribution rather than aborting the analysis.
	var parsed *urlcheck.ParsedURL
	if p, parseErr := urlcheck.Parse(finalURL); parseErr == nil {
		parsed = &p
	} else {
		uc.logger.Warn("structural parse failed, scoring without structure",
			slog.String("url", observability.RedactURL(finalURL)),
			slog.String("error", parseErr.Error()),
		)
	}

	// 4. Signal gathering, bounded by the total analysis deadline.
	orchestration := uc.orchestrator.Analyze(ctx, lookupHost(finalURL, parsed))

	// 5. Scoring.
	analysis, err := uc.scorer.Score(service.ScoreInput{
		URL:           finalURL,
		Parsed:        parsed,
		Sanitization:  sanitization,
		Orchestration: orchestration,
	})
	if err != nil {
		return dto.AnalyzeURLResponse{}, fmt.Errorf("score url: %w", err)
	}

	// 6. Event publishing is best-effort: a broker outage must not fail an
	// otherwise complete analysis.
	if evts := analysis.Events(); len(evts) > 0 {
		if pubErr := uc.publisher.Publish(ctx, evts...); pubErr != nil {
			uc.logger.Error("failed to publish analysis events",
				slog.String("analysis_id", analysis.ID().String()),
				slog.String("error", pubErr.Error()),
			)
		}
		analysis.ClearEvents()
	}

	if uc.metrics != nil {
		uc.metrics.AnalysesTotal.WithLabelValues(analysis.RiskLevel().String()).Inc()
	}

	uc.logger.Info("analysis complete",
		slog.String("analysis_id", analysis.ID().String()),
		slog.String("url", observability.RedactURL(finalURL)),
		slog.Float64("risk_score", analysis.RiskScore()),
		slog.String("risk_level", analysis.RiskLevel().String()),
		slog.Bool("degraded", analysis.Degraded()),
	)

	return dto.FromAnalysis(analysis, validation, orchestration), nil
}

// lookupHost picks the hostname handed to signal sources. The full host is
// preferred so TLS inspection sees the certificate actually served; the
// parsed registrable domain is the fallback.
func lookupHost(finalURL string, parsed *urlcheck.ParsedURL) string {
	if u, err := url.Parse(finalURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	if parsed != nil {
		return parsed.Domain
	}
	return finalURL
}
