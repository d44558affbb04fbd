// Package grpc exposes the standard gRPC health service so orchestrators can
// probe the server without going through the HTTP API.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "dailyops"

const defaultProbeInterval = time.Second

// HealthServer serves grpc.health.v1.Health. The status follows probe,
// which is polled every probeInterval.
type HealthServer struct {
	address       string
	logger        logging.Logger
	probe         func() bool
	probeInterval time.Duration
}

func NewHealthServer(addr string, l logging.Logger, probe func() bool) *HealthServer {
	if l == nil {
		l = logging.Nop{}
	}
	if probe == nil {
		probe = func() bool { return true }
	}
	return &HealthServer{
		address:       addr,
		logger:        l.With("module", "grpc_health"),
		probe:         probe,
		probeInterval: defaultProbeInterval,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.logCalls))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	s.report(hs)

	go func() {
		ticker := time.NewTicker(s.probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC health server...")
				hs.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.report(hs)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}

func (s *HealthServer) report(hs *health.Server) {
	st := healthpb.HealthCheckResponse_SERVING
	if !s.probe() {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", st)
	hs.SetServingStatus(ServiceName, st)
}
