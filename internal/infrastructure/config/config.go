package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/urlassay/urlassay/internal/domain/valueobject"
)

const overrideFileEnv = "URLASSAY_CONFIG"

// KafkaConfig holds the event transport settings.
type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Broker  string `yaml:"broker"`
	Topic   string `yaml:"topic"`
}

// SourceEndpoints holds the external endpoints and credentials for the
// signal source clients.
type SourceEndpoints struct {
	ReputationEndpoint string `yaml:"reputationEndpoint"`
	ReputationAPIKey   string `yaml:"reputationApiKey"`
	WhoisServer        string `yaml:"whoisServer"`
	JudgeEndpoint      string `yaml:"judgeEndpoint"`
	JudgeModel         string `yaml:"judgeModel"`
	JudgeAPIKey        string `yaml:"judgeApiKey"`
}

// Config holds all configuration for the service.
type Config struct {
	Environment valueobject.Environment
	HTTPPort    string
	LogFormat   string
	Kafka       KafkaConfig
	Endpoints   SourceEndpoints
	Service     ServiceConfig
}

// fileOverrides is the YAML shape of the optional override file named by
// URLASSAY_CONFIG. Absent fields fall back to environment defaults.
type fileOverrides struct {
	Kafka     *KafkaConfig      `yaml:"kafka"`
	Endpoints *SourceEndpoints  `yaml:"endpoints"`
	Service   *ServiceOverrides `yaml:"service"`
}

// Load reads configuration from environment variables with sensible
// defaults, applies the optional YAML override file, and builds the
// per-environment service bundle.
func Load() (*Config, error) {
	env, err := valueobject.EnvironmentFromString(getEnv("ENVIRONMENT", "development"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := &Config{
		Environment: env,
		HTTPPort:    getEnv("HTTP_PORT", "8090"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Kafka: KafkaConfig{
			Enabled: os.Getenv("KAFKA_BROKER") != "",
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "urlassay.analyses"),
		},
		Endpoints: SourceEndpoints{
			ReputationEndpoint: os.Getenv("REPUTATION_ENDPOINT"),
			ReputationAPIKey:   os.Getenv("REPUTATION_API_KEY"),
			WhoisServer:        getEnv("WHOIS_SERVER", "whois.iana.org:43"),
			JudgeEndpoint:      getEnv("JUDGE_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			JudgeModel:         getEnv("JUDGE_MODEL", "gpt-4o-mini"),
			JudgeAPIKey:        os.Getenv("JUDGE_API_KEY"),
		},
	}

	var serviceOverrides *ServiceOverrides
	if path := os.Getenv(overrideFileEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		var file fileOverrides
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if file.Kafka != nil {
			cfg.Kafka = *file.Kafka
		}
		if file.Endpoints != nil {
			cfg.Endpoints = *file.Endpoints
		}
		serviceOverrides = file.Service
	}

	cfg.Service = BuildServiceConfig(env, serviceOverrides)

	return cfg, nil
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
