// Package grpcserver exposes the standard gRPC health service for the links page.
// The reported status follows the health of the link store.
package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/patric-chuzhbe/linkfy/internal/grpcserver/interceptor"
	"github.com/patric-chuzhbe/linkfy/internal/logger"
)

// ServiceName is the health service name of the links page.
const ServiceName = "linkfy.Links"

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker keeps the health server in sync with the store.
type HealthChecker struct {
	db     pinger
	server *health.Server
}

// NewHealthChecker returns a checker reporting NOT_SERVING until the first Refresh.
func NewHealthChecker(db pinger) *HealthChecker {
	server := health.NewServer()
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthChecker{
		db:     db,
		server: server,
	}
}

// Refresh pings the store once and publishes the result.
func (h *HealthChecker) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	servingStatus := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		logger.Log.Debugln("Error calling the `h.db.Ping()`: ", err)
		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.server.SetServingStatus("", servingStatus)
	h.server.SetServingStatus(ServiceName, servingStatus)

	return servingStatus
}

// Run refreshes the status every interval until ctx is done, then marks
// everything NOT_SERVING for good.
func (h *HealthChecker) Run(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				h.server.Shutdown()
				return
			case <-ticker.C:
				h.Refresh(ctx)
			}
		}
	}()
}

// NewGRPCServer listens on addr and registers the health service.
func NewGRPCServer(addr string, checker *HealthChecker) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	return newServer(checker), lis, nil
}

func newServer(checker *HealthChecker) *grpc.Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor(
				"/grpc.health.v1.Health/Check",
			),
		),
	)
	healthpb.RegisterHealthServer(server, checker.server)

	return server
}
