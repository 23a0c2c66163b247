package sources

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/signal"
)

// TLSPostureSource inspects the certificate a host serves on port 443.
// An invalid or expiring certificate raises the score; an unreachable host
// is a lookup error left to the orchestrator.
type TLSPostureSource struct {
	dialer *tls.Dialer
	logger *slog.Logger
	now    func() time.Time
}

var _ port.SignalSource = (*TLSPostureSource)(nil)

// NewTLSPostureSource builds a TLS inspection client.
func NewTLSPostureSource(logger *slog.Logger) *TLSPostureSource {
	return &TLSPostureSource{
		dialer: &tls.Dialer{
			NetDialer: &net.Dialer{},
			// Verification runs manually after the handshake so an
			// untrusted chain becomes evidence instead of a dial error.
			Config: &tls.Config{InsecureSkipVerify: true},
		},
		logger: logger,
		now:    time.Now,
	}
}

func (s *TLSPostureSource) ID() string { return signal.SourceTLSPosture }

// Lookup performs a TLS handshake against domain:443 and grades the
// presented certificate chain.
func (s *TLSPostureSource) Lookup(ctx context.Context, domain string) (*signal.Payload, error) {
	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(domain, "443"))
	if err != nil {
		return nil, fmt.Errorf("tls handshake %s: %w", domain, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("tls handshake %s: no peer certificates", domain)
	}

	return s.grade(domain, state), nil
}

func (s *TLSPostureSource) grade(domain string, state tls.ConnectionState) *signal.Payload {
	leaf := state.PeerCertificates[0]
	now := s.now()

	details := map[string]string{
		"issuer":    leaf.Issuer.CommonName,
		"notAfter":  leaf.NotAfter.Format(time.RFC3339),
		"notBefore": leaf.NotBefore.Format(time.RFC3339),
	}

	if now.After(leaf.NotAfter) {
		return &signal.Payload{
			RiskScore: 0.85,
			Summary:   "certificate is expired",
			Details:   details,
		}
	}
	if now.Before(leaf.NotBefore) {
		return &signal.Payload{
			RiskScore: 0.85,
			Summary:   "certificate is not yet valid",
			Details:   details,
		}
	}

	if err := verifyChain(domain, state); err != nil {
		details["verifyError"] = err.Error()
		return &signal.Payload{
			RiskScore: 0.8,
			Summary:   "certificate chain does not verify",
			Details:   details,
		}
	}

	if state.Version < tls.VersionTLS12 {
		return &signal.Payload{
			RiskScore: 0.6,
			Summary:   "host negotiates an obsolete TLS version",
			Details:   details,
		}
	}

	if remaining := leaf.NotAfter.Sub(now); remaining < 14*24*time.Hour {
		details["expiresInDays"] = fmt.Sprintf("%d", int(remaining.Hours()/24))
		return &signal.Payload{
			RiskScore: 0.5,
			Summary:   "certificate expires within two weeks",
			Details:   details,
		}
	}

	return &signal.Payload{
		RiskScore: 0.1,
		Summary:   "certificate chain verifies and is current",
		Details:   details,
	}
}

func verifyChain(domain string, state tls.ConnectionState) error {
	intermediates := x509.NewCertPool()
	for _, cert := range state.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	_, err := state.PeerCertificates[0].Verify(x509.VerifyOptions{
		DNSName:       domain,
		Intermediates: intermediates,
	})
	return err
}
