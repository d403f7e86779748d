package grpc

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves grpc.health.v1 for the assistant service. The service is
// NOT_SERVING while any dependency fails its ping.
type Health struct {
	hs      *health.Server
	deps    map[string]Pinger
	timeout time.Duration
}

// NewHealth creates a health service over the named dependencies.
func NewHealth(deps map[string]Pinger) *Health {
	h := &Health{hs: health.NewServer(), deps: deps, timeout: 5 * time.Second}
	h.hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return h
}

// Check pings every dependency once and updates the serving status.
// It reports whether all dependencies answered.
func (h *Health) Check(ctx context.Context) bool {
	ok := true
	for _, name := range slices.Sorted(maps.Keys(h.deps)) {
		pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.deps[name].Ping(pingCtx)
		cancel()
		if err != nil {
			slog.Warn("Health check failed", "dependency", name, "error", err)
			ok = false
		}
	}

	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.hs.SetServingStatus(ServiceName, st)

	return ok
}

// Run checks the dependencies every interval until ctx is done.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
