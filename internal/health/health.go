// Package health serves the standard gRPC health protocol and keeps its
// status in line with the backing store.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/metorial/script-admin/internal/logging"
)

const Service = "script-admin"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	server *health.Server
	pinger Pinger
	log    *zap.SugaredLogger
}

// NewMonitor reports SERVING until the first check. A nil pinger means
// there is nothing to check and the status never changes.
func NewMonitor(pinger Pinger, log *zap.SugaredLogger) *Monitor {
	if log == nil {
		log = logging.Nop()
	}

	m := &Monitor{
		server: health.NewServer(),
		pinger: pinger,
		log:    log,
	}
	m.set(grpc_health_v1.HealthCheckResponse_SERVING)
	return m
}

func (m *Monitor) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, m.server)
}

// Check pings the store once and updates the served status.
func (m *Monitor) Check(ctx context.Context) error {
	if m.pinger == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.pinger.Ping(ctx); err != nil {
		m.log.Warnw("store health check failed", "error", err)
		m.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return err
	}

	m.set(grpc_health_v1.HealthCheckResponse_SERVING)
	return nil
}

// Run checks on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (m *Monitor) Shutdown() {
	m.server.Shutdown()
}

func (m *Monitor) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(Service, status)
}
