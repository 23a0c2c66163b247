package sources

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/signal"
)

// StubSource is a development/test adapter that returns a deterministic
// score derived from the domain name. It stands in for any source whose
// real backend is not configured, keeping scoring scenarios repeatable.
type StubSource struct {
	id string
}

var _ port.SignalSource = (*StubSource)(nil)

// NewStubSource creates a stub adapter answering for the given source ID.
func NewStubSource(id string) *StubSource {
	return &StubSource{id: id}
}

func (s *StubSource) ID() string { return s.id }

// Lookup returns a deterministic score in [0, 0.5] based on a hash of the
// source ID and domain, so different stubbed sources disagree plausibly.
func (s *StubSource) Lookup(_ context.Context, domain string) (*signal.Payload, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}

	h := sha256.Sum256([]byte(s.id + ":" + domain))
	num := binary.BigEndian.Uint32(h[:4])
	score := float64(num%501) / 1000 // range [0, 0.5]

	return &signal.Payload{
		RiskScore: score,
		Summary:   fmt.Sprintf("stubbed %s verdict", s.id),
		Details:   map[string]string{"provider": "stub"},
	}, nil
}
