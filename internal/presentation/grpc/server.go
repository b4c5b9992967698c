package grpc

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kuwago/lending/pkg/auth"
)

// Server wraps a gRPC server with the lending handler registered.
type Server struct {
	gs     *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewServer creates and configures the gRPC server. Calls are traced, logged
// and authenticated in that order; health checks skip authentication. opts
// carry transport settings such as TLS credentials.
func NewServer(handler LendingServiceServer, logger *slog.Logger, jwtService *auth.JWTService, opts ...grpc.ServerOption) *Server {
	authInterceptor := auth.UnaryAuthInterceptor(jwtService, auth.SkipServices("grpc.health.v1.Health"))
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			UnaryTracingInterceptor(),
			UnaryLoggingInterceptor(logger),
			authInterceptor,
		),
	}

	serverOpts = append(serverOpts, opts...)

	gs := grpc.NewServer(serverOpts...)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(gs, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	if os.Getenv("GRPC_REFLECTION") == "true" {
		reflection.Register(gs)
	}

	RegisterLendingServiceServer(gs, handler)

	return &Server{gs: gs, health: healthSrv, logger: logger}
}

// Serve starts the gRPC server on addr.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.gs.Serve(lis)
}

// GracefulStop marks the service as not serving and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.gs.GracefulStop()
}
