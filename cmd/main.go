package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PixelNoob/executionbackup/config"
	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/circuitbreaker"
	"github.com/PixelNoob/executionbackup/internal/fanout"
	"github.com/PixelNoob/executionbackup/internal/handler"
	"github.com/PixelNoob/executionbackup/internal/healthcheck"
	"github.com/PixelNoob/executionbackup/internal/httpserver"
	"github.com/PixelNoob/executionbackup/internal/metrics"
	"github.com/PixelNoob/executionbackup/internal/selector"
	"github.com/PixelNoob/executionbackup/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backends, err := initializeBackends(cfg, log)
	if err != nil {
		log.Error("Failed to initialize backends", slog.Any("err", err))
		os.Exit(1)
	}

	var jwtSecret []byte
	if cfg.Auth.JWTSecret != "" {
		jwtSecret, err = backend.LoadJWTSecret(cfg.Auth.JWTSecret)
		if err != nil {
			log.Error("Failed to load jwt secret", slog.Any("err", err))
			os.Exit(1)
		}
	}

	nodeTimeout, err := time.ParseDuration(cfg.Relay.NodeTimeout)
	if err != nil {
		log.Error("Failed to parse node timeout", slog.Any("err", err))
		os.Exit(1)
	}

	resetTimeout, err := time.ParseDuration(cfg.Breaker.ResetTimeout)
	if err != nil {
		log.Error("Failed to parse breaker reset timeout", slog.Any("err", err))
		os.Exit(1)
	}

	checkInterval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		log.Error("Failed to parse health check interval", slog.Any("err", err))
		os.Exit(1)
	}

	policy, err := createPolicy(log, cfg.Relay.Policy, cfg.Relay.QuorumThreshold)
	if err != nil {
		log.Error("Failed to create selection policy",
			slog.String("policy", cfg.Relay.Policy),
			slog.Any("err", err))
		os.Exit(1)
	}

	client := backend.NewClient(jwtSecret)
	breakers := circuitbreaker.NewRegistry(cfg.Breaker.FailureThreshold, resetTimeout)
	coordinator := fanout.NewCoordinator(log, client, breakers)

	collector := metrics.NewCollector(1024, log)
	collector.Start(ctx)

	checker := healthcheck.NewChecker(log, client, backends, checkInterval, nodeTimeout, collector)
	checker.Start(ctx)

	relayHandler := handler.NewRelayHandler(log, coordinator, policy, backends, nodeTimeout, collector)
	opsHandler := handler.NewOpsHandler(log, backends, checker, breakers)

	mux := setupRouter(relayHandler, opsHandler, collector, cfg.Relay.Policy)

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Relay started",
		slog.String("addr", cfg.Server.Address),
		slog.String("policy", cfg.Relay.Policy),
		slog.Int("nodes", len(backends)))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting relay", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func initializeBackends(cfg *config.Config, log *slog.Logger) ([]*backend.Backend, error) {
	var backends []*backend.Backend

	for _, node := range cfg.Nodes {
		u, err := url.Parse(node.URL)

		if err != nil {
			log.Error("Failed to parse URL",
				slog.String("url", node.URL),
				slog.String("error", err.Error()))
			continue
		}

		backends = append(backends, backend.New(u, node.Label))
	}

	if len(backends) == 0 {
		return nil, os.ErrInvalid
	}

	return backends, nil
}

func createPolicy(logger *slog.Logger, policyType string, quorumThreshold float64) (selector.Policy, error) {
	switch policyType {
	case config.PolicyFastest:
		return selector.NewFastestPolicy(), nil
	case config.PolicyFirst:
		return selector.NewFirstHealthyPolicy(), nil
	case config.PolicyQuorum:
		return selector.NewQuorumPolicy(quorumThreshold), nil
	default:
		logger.Warn("Unknown policy, defaulting to fastest", slog.String("requested", policyType))
		return selector.NewFastestPolicy(), nil
	}
}
