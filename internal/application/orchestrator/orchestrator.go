// Package orchestrator dispatches signal-source lookups concurrently under
// per-source timeout, retry and cache policy, bounded by a single
// total-analysis deadline. One source's failure never aborts its siblings.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/signal"
	"github.com/urlassay/urlassay/pkg/cache"
	"github.com/urlassay/urlassay/pkg/observability"
)

// SourceConfig is the per-source policy fixed at registration time.
type SourceConfig struct {
	Enabled       bool
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	CacheEnabled  bool
	CacheTTL      time.Duration
	CacheSize     int
}

const defaultRetryInterval = 100 * time.Millisecond

// binding pairs a source with its policy and its private cache instance.
type binding struct {
	source port.SignalSource
	cfg    SourceConfig
	cache  *cache.Cache[*signal.Payload]
}

// Orchestrator fans out lookups to all registered sources for one domain.
type Orchestrator struct {
	bindings      []binding
	totalDeadline time.Duration
	logger        *slog.Logger
	metrics       *observability.PipelineMetrics
}

// New creates an Orchestrator enforcing the given total-analysis deadline.
// metrics may be nil.
func New(totalDeadline time.Duration, logger *slog.Logger, metrics *observability.PipelineMetrics) (*Orchestrator, error) {
	if totalDeadline <= 0 {
		return nil, fmt.Errorf("total deadline must be positive, got %s", totalDeadline)
	}
	return &Orchestrator{
		totalDeadline: totalDeadline,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Register adds a source with its policy. Each source gets its own cache
// instance; keys are never shared across sources. Registration order fixes
// the result and scoring order.
func (o *Orchestrator) Register(source port.SignalSource, cfg SourceConfig) error {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}

	b := binding{source: source, cfg: cfg}
	if cfg.CacheEnabled {
		c, err := cache.New[*signal.Payload](cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("cache for source %s: %w", source.ID(), err)
		}
		b.cache = c
	}

	o.bindings = append(o.bindings, b)
	return nil
}

// SourceIDs returns the registered source IDs in registration order.
func (o *Orchestrator) SourceIDs() []string {
	ids := make([]string, 0, len(o.bindings))
	for _, b := range o.bindings {
		ids = append(ids, b.source.ID())
	}
	return ids
}

// Analyze looks up the domain against every registered source concurrently
// and collects whatever completes before the total deadline. Sources still
// pending at the deadline are marked timeout, not dropped.
func (o *Orchestrator) Analyze(ctx context.Context, domain string) signal.OrchestrationResult {
	start := time.Now()

	result := signal.OrchestrationResult{
		Order:   o.SourceIDs(),
		Results: make(map[string]signal.Result, len(o.bindings)),
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, o.totalDeadline)
	defer cancel()

	// Buffered to capacity so late finishers never block after the
	// collector has given up on them.
	resultCh := make(chan signal.Result, len(o.bindings))
	for _, b := range o.bindings {
		go func(b binding) {
			resultCh <- o.lookupOne(deadlineCtx, b, domain)
		}(b)
	}

collect:
	for range o.bindings {
		select {
		case r := <-resultCh:
			result.Results[r.SourceID] = r
		case <-deadlineCtx.Done():
			result.DeadlineExceeded = true
			break collect
		}
	}

	// Pending lookups are cancelled best-effort via deadlineCtx; record
	// them as timed out so no configured source is silently dropped.
	for _, id := range result.Order {
		if _, ok := result.Results[id]; !ok {
			result.Results[id] = signal.Result{
				SourceID:    id,
				Status:      signal.StatusTimeout,
				LatencyMs:   time.Since(start).Milliseconds(),
				ErrorDetail: "total analysis deadline exceeded",
			}
		}
	}

	result.TotalElapsedMs = time.Since(start).Milliseconds()

	if o.logger != nil {
		o.logger.Debug("orchestration complete",
			slog.String("domain", domain),
			slog.Int64("elapsed_ms", result.TotalElapsedMs),
			slog.Bool("deadline_exceeded", result.DeadlineExceeded),
		)
	}

	return result
}

// lookupOne runs the cache-first, retried, timeout-bounded lookup for one
// source. It never returns an error or lets a panic escape: every outcome
// is a tagged result.
func (o *Orchestrator) lookupOne(ctx context.Context, b binding, domain string) (res signal.Result) {
	id := b.source.ID()

	defer func() {
		if p := recover(); p != nil {
			if o.logger != nil {
				o.logger.Error("signal source panicked",
					slog.String("source", id),
					slog.Any("panic", p),
				)
			}
			res = signal.Result{
				SourceID:    id,
				Status:      signal.StatusError,
				ErrorDetail: fmt.Sprintf("source panicked: %v", p),
			}
		}
		o.observe(res)
	}()

	if !b.cfg.Enabled {
		return signal.Result{SourceID: id, Status: signal.StatusSkipped, ErrorDetail: "source disabled by configuration"}
	}

	if b.cache != nil {
		if payload, ok := b.cache.Get(domain); ok {
			if o.metrics != nil {
				o.metrics.CacheHits.WithLabelValues(id).Inc()
			}
			return signal.Result{SourceID: id, Status: signal.StatusOK, Payload: payload, LatencyMs: 0, FromCache: true}
		}
		if o.metrics != nil {
			o.metrics.CacheMisses.WithLabelValues(id).Inc()
		}
	}

	start := time.Now()

	var payload *signal.Payload
	attempt := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()

		p, err := b.source.Lookup(attemptCtx, domain)
		if err != nil {
			if attemptCtx.Err() != nil {
				err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
			}
			return err
		}
		if p == nil {
			return backoff.Permanent(errors.New("source returned no payload"))
		}
		payload = p
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(b.cfg.RetryInterval), uint64(b.cfg.MaxRetries)),
		ctx,
	)
	err := backoff.Retry(attempt, policy)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		status := signal.StatusError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = signal.StatusTimeout
		}
		return signal.Result{SourceID: id, Status: status, LatencyMs: latency, ErrorDetail: err.Error()}
	}

	if b.cache != nil {
		b.cache.Set(domain, payload, b.cfg.CacheTTL)
	}

	return signal.Result{SourceID: id, Status: signal.StatusOK, Payload: payload, LatencyMs: latency}
}

func (o *Orchestrator) observe(res signal.Result) {
	if o.metrics == nil || res.FromCache {
		return
	}
	o.metrics.SourceLookups.
		WithLabelValues(res.SourceID, string(res.Status)).
		Observe(float64(res.LatencyMs) / 1000)
}
