// Package server wires the HTTP API, the chat socket and the gRPC health service.
package server

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	apphealth "staffhub/backend/internal/health"
)

// ServiceName is the gRPC health service name reported alongside the overall ("") status.
const ServiceName = "staffhub.API"

// NewGRPCServer returns a gRPC server with the standard health service registered and OTel stats handling.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

// WatchHealth runs checker every interval and publishes SERVING or NOT_SERVING until ctx is done,
// then marks everything NOT_SERVING.
func WatchHealth(ctx context.Context, hs *health.Server, checker *apphealth.Checker, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	publish := func() {
		rep := checker.Run(ctx)
		status := healthpb.HealthCheckResponse_SERVING
		if !rep.OK() {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			log.Warn().Interface("checks", rep.Checks).Msg("health: not serving")
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)
	}
	publish()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			publish()
		}
	}
}
