package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlassay/urlassay/internal/domain/signal"
	"github.com/urlassay/urlassay/internal/infrastructure/config"
	"github.com/urlassay/urlassay/internal/domain/valueobject"
)

func TestBuildServiceConfig_Reproducible(t *testing.T) {
	for _, env := range []valueobject.Environment{
		valueobject.EnvironmentProduction,
		valueobject.EnvironmentStaging,
		valueobject.EnvironmentDevelopment,
	} {
		t.Run(string(env), func(t *testing.T) {
			first := config.BuildServiceConfig(env, nil)
			second := config.BuildServiceConfig(env, nil)
			assert.True(t, reflect.DeepEqual(first, second),
				"config must be reproducible from the environment name alone")
		})
	}
}

func TestBuildServiceConfig_EnvironmentOrdering(t *testing.T) {
	prod := config.BuildServiceConfig(valueobject.EnvironmentProduction, nil)
	staging := config.BuildServiceConfig(valueobject.EnvironmentStaging, nil)
	dev := config.BuildServiceConfig(valueobject.EnvironmentDevelopment, nil)

	assert.Less(t, prod.TotalDeadline, staging.TotalDeadline)
	assert.Less(t, staging.TotalDeadline, dev.TotalDeadline)

	for _, id := range prod.SourceOrder {
		assert.Less(t, prod.Sources[id].Timeout, staging.Sources[id].Timeout, id)
		assert.Less(t, staging.Sources[id].Timeout, dev.Sources[id].Timeout, id)
		assert.LessOrEqual(t, prod.Sources[id].MaxRetries, staging.Sources[id].MaxRetries, id)

		// Caching stays enabled even in the most lenient environment.
		assert.True(t, dev.Sources[id].CacheEnabled, id)
	}
}

func TestBuildServiceConfig_OverridePrecedence(t *testing.T) {
	deadline := config.Duration(9 * time.Second)
	timeout := config.Duration(250 * time.Millisecond)
	disabled := false

	overrides := &config.ServiceOverrides{
		TotalDeadline: &deadline,
		Sources: map[string]config.SourcePolicyOverrides{
			signal.SourceReputation: {Timeout: &timeout},
			signal.SourceAIJudgment: {Enabled: &disabled},
		},
	}

	cfg := config.BuildServiceConfig(valueobject.EnvironmentProduction, overrides)
	base := config.BuildServiceConfig(valueobject.EnvironmentProduction, nil)

	assert.Equal(t, 9*time.Second, cfg.TotalDeadline)
	assert.Equal(t, 250*time.Millisecond, cfg.Sources[signal.SourceReputation].Timeout)
	assert.False(t, cfg.Sources[signal.SourceAIJudgment].Enabled)

	// Absent override fields keep the environment defaults.
	assert.Equal(t, base.LogLevel, cfg.LogLevel)
	assert.Equal(t, base.Sources[signal.SourceReputation].MaxRetries, cfg.Sources[signal.SourceReputation].MaxRetries)
	assert.Equal(t, base.Sources[signal.SourceDomainAge], cfg.Sources[signal.SourceDomainAge])
}

func TestBuildServiceConfig_UnknownSourceOverrideIgnored(t *testing.T) {
	timeout := config.Duration(time.Second)
	overrides := &config.ServiceOverrides{
		Sources: map[string]config.SourcePolicyOverrides{
			"no-such-source": {Timeout: &timeout},
		},
	}

	cfg := config.BuildServiceConfig(valueobject.EnvironmentProduction, overrides)
	_, ok := cfg.Sources["no-such-source"]
	assert.False(t, ok)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("URLASSAY_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, valueobject.EnvironmentProduction, cfg.Environment)
	assert.Equal(t, ":8090", cfg.HTTPAddress())
	assert.Equal(t, valueobject.EnvironmentProduction, cfg.Service.Environment)
	assert.Len(t, cfg.Service.SourceOrder, 4)
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "qa")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_OverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	content := `
service:
  totalDeadline: 2s
  sources:
    reputation:
      maxRetries: 5
kafka:
  enabled: true
  broker: kafka:9092
  topic: custom.topic
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("URLASSAY_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Service.TotalDeadline)
	assert.Equal(t, 5, cfg.Service.Sources[signal.SourceReputation].MaxRetries)
	assert.Equal(t, "kafka:9092", cfg.Kafka.Broker)
	assert.Equal(t, "custom.topic", cfg.Kafka.Topic)
}
