package integration

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/metorial/script-admin/internal/health"
	"github.com/metorial/script-admin/internal/store"
)

func TestGRPCHealthFollowsDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := store.NewDB(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	defer listener.Close()

	monitor := health.NewMonitor(db, nil)
	grpcServer := grpc.NewServer()
	monitor.Register(grpcServer)

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()
	defer grpcServer.Stop()

	conn, err := grpc.NewClient(listener.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)
	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: health.Service})
		if err != nil {
			t.Fatalf("Health check failed: %v", err)
		}
		return resp.Status
	}

	if err := monitor.Check(context.Background()); err != nil {
		t.Fatalf("Expected healthy database: %v", err)
	}
	if got := check(); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("Expected SERVING, got %v", got)
	}

	db.Close()
	monitor.Check(context.Background())

	if got := check(); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Expected NOT_SERVING after database close, got %v", got)
	}
}
