package server

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CombatServiceName is the gRPC health service name reported for the combat engine.
const CombatServiceName = "mudcombat.Combat"

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// HealthService serves the standard gRPC health protocol. Its status follows
// the registered probes: SERVING while every probe passes, NOT_SERVING otherwise.
type HealthService struct {
	addr     string
	interval time.Duration
	logger   *zap.Logger
	grpc     *grpc.Server
	health   *health.Server

	mu     sync.Mutex
	probes map[string]Probe
	done   chan struct{}
	once   sync.Once
}

// NewHealthService creates a HealthService listening on addr that re-runs its
// probes every interval.
//
// Precondition: interval > 0; logger must be non-nil.
// Postcondition: Both the overall and CombatServiceName statuses start as SERVING.
func NewHealthService(addr string, interval time.Duration, logger *zap.Logger) *HealthService {
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(CombatServiceName, healthpb.HealthCheckResponse_SERVING)
	return &HealthService{
		addr:     addr,
		interval: interval,
		logger:   logger,
		grpc:     gs,
		health:   hs,
		probes:   make(map[string]Probe),
		done:     make(chan struct{}),
	}
}

// AddProbe registers a named dependency probe.
//
// Precondition: name must be non-empty; p must be non-nil.
func (h *HealthService) AddProbe(name string, p Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = p
}

// Check runs every probe once and updates the served status.
//
// Postcondition: Returns the failing probes keyed by name; empty when healthy.
func (h *HealthService) Check(ctx context.Context) map[string]error {
	h.mu.Lock()
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	probes := make(map[string]Probe, len(h.probes))
	for k, v := range h.probes {
		probes[k] = v
	}
	h.mu.Unlock()
	sort.Strings(names)

	failed := make(map[string]error)
	for _, name := range names {
		if err := probes[name](ctx); err != nil {
			h.logger.Warn("dependency health check failed",
				zap.String("dependency", name),
				zap.Error(err),
			)
			failed[name] = err
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if len(failed) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(CombatServiceName, status)
	return failed
}

// Serve runs the probe loop and serves gRPC on lis until Stop is called.
//
// Precondition: lis must be non-nil.
func (h *HealthService) Serve(lis net.Listener) error {
	go h.poll()
	h.logger.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	return h.grpc.Serve(lis)
}

// Start listens on the configured address and serves. It implements Service.
func (h *HealthService) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	return h.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight RPCs. When ctx
// ends first, remaining connections are closed. It implements Service.
func (h *HealthService) Stop(ctx context.Context) error {
	h.once.Do(func() { close(h.done) })
	h.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		h.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		h.grpc.Stop()
		return fmt.Errorf("graceful stop of health server: %w", ctx.Err())
	}
}

func (h *HealthService) poll() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), h.interval)
			h.Check(ctx)
			cancel()
		}
	}
}
