package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/urlassay/urlassay/internal/application/orchestrator"
	"github.com/urlassay/urlassay/internal/application/usecase"
	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/service"
	"github.com/urlassay/urlassay/internal/domain/signal"
	"github.com/urlassay/urlassay/internal/infrastructure/config"
	"github.com/urlassay/urlassay/internal/infrastructure/messaging"
	"github.com/urlassay/urlassay/internal/infrastructure/sources"
	"github.com/urlassay/urlassay/internal/presentation/rest"
	"github.com/urlassay/urlassay/pkg/observability"
)

func main() {
	// Load configuration first; the log level depends on the environment.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.Service.LogLevel,
		Format: cfg.LogFormat,
	})

	logger.Info("starting urlassay",
		slog.String("environment", string(cfg.Environment)),
	)

	// Metrics.
	_, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: "urlassay"})
	if err != nil {
		logger.Error("failed to initialize metrics", slog.String("error", err.Error()))
		os.Exit(1)
	}
	pipelineMetrics := observability.NewPipelineMetrics()

	// Event publishing.
	var publisher port.EventPublisher
	var kafkaPublisher *messaging.KafkaEventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = messaging.NewKafkaEventPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, logger)
		publisher = kafkaPublisher
		logger.Info("kafka event publishing enabled",
			slog.String("broker", cfg.Kafka.Broker),
			slog.String("topic", cfg.Kafka.Topic),
		)
	} else {
		publisher = messaging.NewNoopEventPublisher(logger)
	}

	// Signal sources, registered in configured order under their per-source
	// policies.
	orch, err := orchestrator.New(cfg.Service.TotalDeadline, logger, pipelineMetrics)
	if err != nil {
		logger.Error("failed to create orchestrator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, id := range cfg.Service.SourceOrder {
		policy, ok := cfg.Service.Sources[id]
		if !ok {
			continue
		}
		src := buildSource(id, cfg, logger)
		if err := orch.Register(src, orchestrator.SourceConfig{
			Enabled:      policy.Enabled,
			Timeout:      policy.Timeout,
			MaxRetries:   policy.MaxRetries,
			CacheEnabled: policy.CacheEnabled,
			CacheTTL:     policy.CacheTTL,
			CacheSize:    policy.CacheSize,
		}); err != nil {
			logger.Error("failed to register signal source",
				slog.String("source", id),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// Domain services and use cases.
	scorer := service.NewWeightedScorer(service.DefaultWeights(), logger)
	analyzeUC := usecase.NewAnalyzeURL(orch, scorer, publisher, logger, pipelineMetrics)

	// HTTP server.
	handler := rest.NewHandler(analyzeUC, logger)
	router := handler.Routes()
	rest.NewHealthHandler(orch.SourceIDs()).RegisterRoutes(router)
	router.Handle("/metrics", metricsHandler)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", slog.String("address", cfg.HTTPAddress()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("urlassay started",
		slog.String("http_address", cfg.HTTPAddress()),
		slog.String("environment", string(cfg.Environment)),
		slog.Int("sources", len(orch.SourceIDs())),
	)

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", slog.String("error", err.Error()))
	}

	// Graceful shutdown.
	logger.Info("shutting down urlassay")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", slog.String("error", err.Error()))
		}
	}

	logger.Info("urlassay stopped")
}

// buildSource constructs the client for one source ID. Sources whose
// backend needs credentials fall back to the deterministic stub when those
// credentials are absent, keeping development environments self-contained.
func buildSource(id string, cfg *config.Config, logger *slog.Logger) port.SignalSource {
	switch id {
	case signal.SourceReputation:
		return sources.NewReputationSource(cfg.Endpoints.ReputationEndpoint, cfg.Endpoints.ReputationAPIKey, logger)
	case signal.SourceDomainAge:
		return sources.NewDomainAgeSource(cfg.Endpoints.WhoisServer, logger)
	case signal.SourceTLSPosture:
		return sources.NewTLSPostureSource(logger)
	case signal.SourceAIJudgment:
		if cfg.Endpoints.JudgeAPIKey == "" {
			logger.Warn("ai judge has no API key, using stub source")
			return sources.NewStubSource(id)
		}
		return sources.NewAIJudgeSource(cfg.Endpoints.JudgeEndpoint, cfg.Endpoints.JudgeModel, cfg.Endpoints.JudgeAPIKey, logger)
	default:
		return sources.NewStubSource(id)
	}
}
