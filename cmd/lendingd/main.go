package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"

	"github.com/kuwago/lending/internal/application/usecase"
	"github.com/kuwago/lending/internal/infrastructure/adapter"
	"github.com/kuwago/lending/internal/infrastructure/config"
	"github.com/kuwago/lending/internal/infrastructure/kafka"
	"github.com/kuwago/lending/internal/infrastructure/messaging"
	"github.com/kuwago/lending/internal/infrastructure/metrics"
	grpcPresentation "github.com/kuwago/lending/internal/presentation/grpc"
	"github.com/kuwago/lending/internal/presentation/rest"
	"github.com/kuwago/lending/pkg/auth"
	pkgkafka "github.com/kuwago/lending/pkg/kafka"
	"github.com/kuwago/lending/pkg/observability"
	"github.com/kuwago/lending/pkg/tlsutil"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
		Service: cfg.ServiceName,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting lending-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"store", cfg.StoreDriver,
	)

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.Observability.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	_, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
		Registerer:  prometheus.DefaultRegisterer,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	businessMetrics := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.close()

	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithMetrics(businessMetrics),
	}
	if cfg.CacheEnabled() {
		reportCache, closeCache, cacheErr := openReportCache(ctx, cfg, logger)
		if cacheErr != nil {
			logger.Warn("report cache unavailable, serving reports uncached", "error", cacheErr)
		} else {
			defer closeCache()
			opts = append(opts, usecase.WithReportCache(reportCache))
		}
	}
	useCases := usecase.NewSet(st.uow, st.reads, adapter.NewStubCheckoutGateway(), opts...)

	// Outbox relay and settlement consumer.
	kafkaCfg := pkgkafka.Config{
		Brokers:         cfg.Kafka.Brokers,
		ConsumerGroup:   cfg.Kafka.ConsumerGroup,
		ClientID:        cfg.ServiceName,
		HandlerAttempts: cfg.Kafka.HandlerAttempts,
	}
	producer, err := pkgkafka.NewProducer(kafkaCfg)
	if err != nil {
		logger.Error("failed to create kafka producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	relay := messaging.NewOutboxRelay(st.outbox,
		kafka.NewEntryPublisher(producer, cfg.Kafka.EventsTopic, logger),
		cfg.Outbox.BatchSize, businessMetrics, logger)
	scheduler, err := relay.Schedule(ctx, cfg.Outbox.RelaySpec)
	if err != nil {
		logger.Error("failed to schedule outbox relay", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	settlements := kafka.NewSettlementHandler(useCases.CompletePayment, useCases.CancelPayment, logger)
	consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.SettlementsTopic, settlements.Handle, logger)
	if err != nil {
		logger.Error("failed to create settlement consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	jwtSvc, err := newJWTService(cfg.Auth)
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	// gRPC server.
	handler := grpcPresentation.NewLendingHandler(useCases, logger)
	var grpcOpts []grpc.ServerOption
	if cfg.GRPCTLS.Enabled() {
		creds, err := tlsutil.ServerCredentials(cfg.GRPCTLS.CertFile, cfg.GRPCTLS.KeyFile, cfg.GRPCTLS.ClientCAFile)
		if err != nil {
			logger.Error("failed to load gRPC TLS credentials", "error", err)
			os.Exit(1)
		}
		grpcOpts = append(grpcOpts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "mtls", cfg.GRPCTLS.ClientCAFile != "")
	}
	grpcServer := grpcPresentation.NewServer(handler, logger, jwtSvc, grpcOpts...)

	// HTTP server: probes, metrics and checkout webhooks.
	router := rest.NewRouter(rest.RouterConfig{
		Health:     rest.NewHealthHandler(cfg.ServiceName, logger, st.checks...),
		Webhooks:   rest.NewWebhookHandler(useCases.CompletePayment, useCases.CancelPayment, cfg.Auth.WebhookSecret, logger),
		Metrics:    metricsHandler,
		Registerer: prometheus.DefaultRegisterer,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("settlement consumer error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	<-scheduler.Stop().Done()
	if _, err := relay.Drain(shutdownCtx); err != nil {
		logger.Warn("final outbox drain incomplete", "error", err)
	}

	logger.Info("lending-service stopped")
}

// newJWTService prefers a public key for validation and falls back to the
// shared secret.
func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.JWTIssuer}
	switch {
	case cfg.JWTPublicKey != "":
		jwtCfg.PublicKeyPEM = cfg.JWTPublicKey
	case cfg.JWTPublicKeyFile != "":
		keyData, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load JWT public key file: %w", err)
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	case cfg.JWTSecret != "":
		jwtCfg.Secret = cfg.JWTSecret
	default:
		return nil, errors.New("one of JWT_PUBLIC_KEY, JWT_PUBLIC_KEY_FILE or JWT_SECRET is required")
	}
	return auth.NewJWTService(jwtCfg)
}
