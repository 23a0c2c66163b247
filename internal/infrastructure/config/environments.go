package config

import (
	"time"

	"github.com/urlassay/urlassay/internal/domain/signal"
	"github.com/urlassay/urlassay/internal/domain/valueobject"
)

// SourcePolicy is the timeout/retry/cache bundle for one signal source.
type SourcePolicy struct {
	Enabled      bool          `yaml:"enabled"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	CacheEnabled bool          `yaml:"cacheEnabled"`
	CacheTTL     time.Duration `yaml:"cacheTtl"`
	CacheSize    int           `yaml:"cacheSize"`
}

// ServiceConfig is the per-environment tuning bundle consumed by the
// orchestrator and scorer. Absent explicit overrides it is reproducible
// bit-for-bit from the environment name alone.
type ServiceConfig struct {
	Environment   valueobject.Environment
	TotalDeadline time.Duration
	LogLevel      string
	// Sources is keyed by source ID; SourceOrder fixes iteration order.
	Sources     map[string]SourcePolicy
	SourceOrder []string
}

// Duration is a time.Duration that unmarshals from YAML strings like "2s".
type Duration time.Duration

// UnmarshalYAML accepts either a duration string or a nanosecond integer.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := unmarshal(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// SourcePolicyOverrides patches one source policy; nil fields keep the
// environment default.
type SourcePolicyOverrides struct {
	Enabled      *bool     `yaml:"enabled"`
	Timeout      *Duration `yaml:"timeout"`
	MaxRetries   *int      `yaml:"maxRetries"`
	CacheEnabled *bool     `yaml:"cacheEnabled"`
	CacheTTL     *Duration `yaml:"cacheTtl"`
	CacheSize    *int      `yaml:"cacheSize"`
}

// ServiceOverrides patches a built ServiceConfig field-by-field; a present
// override field always wins, absent fields fall back to the environment
// default.
type ServiceOverrides struct {
	TotalDeadline *Duration                        `yaml:"totalDeadline"`
	LogLevel      *string                          `yaml:"logLevel"`
	Sources       map[string]SourcePolicyOverrides `yaml:"sources"`
}

// defaultSourceOrder fixes the registration and scoring order of sources.
var defaultSourceOrder = []string{
	signal.SourceReputation,
	signal.SourceDomainAge,
	signal.SourceTLSPosture,
	signal.SourceAIJudgment,
}

// environmentDefaults returns the canonical per-environment policy table.
// production is strictest (short timeouts, few retries); development is the
// most lenient, with caching still enabled.
func environmentDefaults(env valueobject.Environment) ServiceConfig {
	var (
		timeoutScale  time.Duration
		maxRetries    int
		totalDeadline time.Duration
		logLevel      string
	)

	switch env {
	case valueobject.EnvironmentProduction:
		timeoutScale = 1
		maxRetries = 1
		totalDeadline = 3 * time.Second
		logLevel = "info"
	case valueobject.EnvironmentStaging:
		timeoutScale = 2
		maxRetries = 2
		totalDeadline = 6 * time.Second
		logLevel = "debug"
	default: // development
		timeoutScale = 5
		maxRetries = 3
		totalDeadline = 15 * time.Second
		logLevel = "debug"
	}

	policy := func(baseTimeout time.Duration, ttl time.Duration) SourcePolicy {
		return SourcePolicy{
			Enabled:      true,
			Timeout:      baseTimeout * timeoutScale,
			MaxRetries:   maxRetries,
			CacheEnabled: true,
			CacheTTL:     ttl,
			CacheSize:    1024,
		}
	}

	return ServiceConfig{
		Environment:   env,
		TotalDeadline: totalDeadline,
		LogLevel:      logLevel,
		SourceOrder:   append([]string(nil), defaultSourceOrder...),
		Sources: map[string]SourcePolicy{
			signal.SourceReputation: policy(800*time.Millisecond, 15*time.Minute),
			signal.SourceDomainAge:  policy(1*time.Second, 6*time.Hour),
			signal.SourceTLSPosture: policy(1*time.Second, 1*time.Hour),
			signal.SourceAIJudgment: policy(1500*time.Millisecond, 30*time.Minute),
		},
	}
}

// BuildServiceConfig produces the configuration bundle for an environment,
// applying overrides field-by-field with override precedence.
func BuildServiceConfig(env valueobject.Environment, overrides *ServiceOverrides) ServiceConfig {
	cfg := environmentDefaults(env)
	if overrides == nil {
		return cfg
	}

	if overrides.TotalDeadline != nil {
		cfg.TotalDeadline = time.Duration(*overrides.TotalDeadline)
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
	}

	for id, patch := range overrides.Sources {
		policy, ok := cfg.Sources[id]
		if !ok {
			continue
		}
		if patch.Enabled != nil {
			policy.Enabled = *patch.Enabled
		}
		if patch.Timeout != nil {
			policy.Timeout = time.Duration(*patch.Timeout)
		}
		if patch.MaxRetries != nil {
			policy.MaxRetries = *patch.MaxRetries
		}
		if patch.CacheEnabled != nil {
			policy.CacheEnabled = *patch.CacheEnabled
		}
		if patch.CacheTTL != nil {
			policy.CacheTTL = time.Duration(*patch.CacheTTL)
		}
		if patch.CacheSize != nil {
			policy.CacheSize = *patch.CacheSize
		}
		cfg.Sources[id] = policy
	}

	return cfg
}
