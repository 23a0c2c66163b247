package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/signal"
)

// DomainAgeSource estimates registration age over the WHOIS protocol.
// Freshly registered domains are a strong phishing indicator.
type DomainAgeSource struct {
	server string
	dialer *net.Dialer
	logger *slog.Logger
	// now is swappable for tests.
	now func() time.Time
}

var _ port.SignalSource = (*DomainAgeSource)(nil)

// NewDomainAgeSource builds a WHOIS client targeting the given server
// address (host:port).
func NewDomainAgeSource(server string, logger *slog.Logger) *DomainAgeSource {
	return &DomainAgeSource{
		server: server,
		dialer: &net.Dialer{},
		logger: logger,
		now:    time.Now,
	}
}

func (s *DomainAgeSource) ID() string { return signal.SourceDomainAge }

// Lookup queries the configured WHOIS server, follows at most one registry
// referral, and maps the creation date to a risk score. A record with no
// parseable creation date is an error, not a zero score.
func (s *DomainAgeSource) Lookup(ctx context.Context, domain string) (*signal.Payload, error) {
	record, err := s.query(ctx, s.server, domain)
	if err != nil {
		return nil, err
	}

	if refer := referralServer(record); refer != "" {
		referred, err := s.query(ctx, refer, domain)
		if err == nil {
			record = referred
		} else if s.logger != nil {
			s.logger.Debug("whois referral failed, using registry record",
				slog.String("domain", domain),
				slog.String("refer", refer),
			)
		}
	}

	created, ok := parseCreationDate(record)
	if !ok {
		return nil, fmt.Errorf("whois record for %s has no creation date", domain)
	}

	age := s.now().Sub(created)
	score, bracket := ageRisk(age)

	return &signal.Payload{
		RiskScore: score,
		Summary:   fmt.Sprintf("domain registered %s (%s)", created.Format("2006-01-02"), bracket),
		Details: map[string]string{
			"createdAt": created.Format(time.RFC3339),
			"ageDays":   fmt.Sprintf("%d", int(age.Hours()/24)),
		},
	}, nil
}

func (s *DomainAgeSource) query(ctx context.Context, server, domain string) (string, error) {
	if !strings.Contains(server, ":") {
		server += ":43"
	}

	conn, err := s.dialer.DialContext(ctx, "tcp", server)
	if err != nil {
		return "", fmt.Errorf("whois dial %s: %w", server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := fmt.Fprintf(conn, "%s\r\n", domain); err != nil {
		return "", fmt.Errorf("whois query %s: %w", server, err)
	}

	raw, err := io.ReadAll(io.LimitReader(conn, 64<<10))
	if err != nil {
		return "", fmt.Errorf("whois read %s: %w", server, err)
	}
	return string(raw), nil
}

// referralServer extracts a registry referral from an IANA-style record.
func referralServer(record string) string {
	for _, line := range strings.Split(record, "\n") {
		key, value, ok := splitWhoisLine(line)
		if !ok {
			continue
		}
		switch key {
		case "refer", "whois", "registrar whois server":
			return value
		}
	}
	return ""
}

// creationKeys covers the registry dialects seen in the wild.
var creationKeys = []string{
	"creation date",
	"created",
	"created on",
	"registered",
	"registered on",
	"registration time",
	"domain registration date",
}

// creationLayouts are tried in order against the extracted date value.
var creationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

func parseCreationDate(record string) (time.Time, bool) {
	for _, line := range strings.Split(record, "\n") {
		key, value, ok := splitWhoisLine(line)
		if !ok {
			continue
		}
		for _, want := range creationKeys {
			if key != want {
				continue
			}
			// Trailing zone annotations like "2019-05-01 12:00:00 UTC".
			value = strings.TrimSuffix(value, " UTC")
			for _, layout := range creationLayouts {
				if t, err := time.Parse(layout, value); err == nil {
					return t, true
				}
			}
		}
	}
	return time.Time{}, false
}

func splitWhoisLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	return key, value, key != "" && value != ""
}

// ageRisk maps registration age to a risk score. Brand-new registrations
// score close to certain-risk; domains older than five years score nominal.
func ageRisk(age time.Duration) (float64, string) {
	days := age.Hours() / 24
	switch {
	case days < 30:
		return 0.9, "under 30 days old"
	case days < 180:
		return 0.6, "under 6 months old"
	case days < 365:
		return 0.4, "under a year old"
	case days < 3*365:
		return 0.2, "under 3 years old"
	default:
		return 0.05, "established"
	}
}
