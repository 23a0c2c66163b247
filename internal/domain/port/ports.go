package port

import (
	"context"

	"github.com/urlassay/urlassay/internal/domain/signal"
	"github.com/urlassay/urlassay/pkg/events"
)

// SignalSource is the contract every external evidence provider satisfies.
// The orchestrator depends only on this interface plus the source's
// configured timeout/retry/cache policy.
type SignalSource interface {
	// ID returns the stable source identifier used for result keying,
	// caching and scoring weights.
	ID() string

	// Lookup fetches this source's evidence for a domain. It must honor
	// ctx cancellation. Transient failures should be returned as errors;
	// the orchestrator owns retry and timeout policy.
	Lookup(ctx context.Context, domain string) (*signal.Payload, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
