package grpcserver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/patric-chuzhbe/linkfy/internal/mockstorage"
)

const dialTimeout = 5 * time.Second

func startServer(t *testing.T, checker *HealthChecker) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	server := newServer(checker)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(
		ctx,
		"bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)

	return resp.GetStatus()
}

func statusOf(client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}

	return resp.GetStatus()
}

func TestHealthFollowsStore(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("Ping", mock.Anything).Return(nil).Once()
	db.On("Ping", mock.Anything).Return(errors.New("store is down")).Once()

	checker := NewHealthChecker(db)
	client := startServer(t, checker)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName))

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checker.Refresh(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checker.Refresh(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName))

	db.AssertExpectations(t)
}

func TestHealthRunStopsWithContext(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("Ping", mock.Anything).Return(nil)

	checker := NewHealthChecker(db)
	client := startServer(t, checker)

	ctx, cancel := context.WithCancel(context.Background())
	checker.Run(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return statusOf(client) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)

	cancel()

	assert.Eventually(t, func() bool {
		return statusOf(client) == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)
}

func TestNewGRPCServerRejectsBadAddress(t *testing.T) {
	_, _, err := NewGRPCServer("not-an-address", NewHealthChecker(&mockstorage.StorageMock{}))
	assert.Error(t, err)
}
