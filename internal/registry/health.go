package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lepista/mycelium/internal/domain"
)

// healthStatusGauge and consecutiveFailuresGauge expose per-instance probe
// state as Prometheus series.
var (
	healthStatusGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mycelium_service_health_status",
		Help: "1 if the service instance is healthy, 0 otherwise.",
	}, []string{"service", "instance"})

	consecutiveFailuresGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mycelium_service_consecutive_failures",
		Help: "Consecutive failed health probes for a service instance.",
	}, []string{"service", "instance"})
)

// RegisterMetrics registers this package's collectors with reg. Called once
// from cmd/mycelium-gatewayd's main, mirroring how prometheus/client_golang
// is normally wired (a package-level vec registered against a concrete
// registry at process startup).
func RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(healthStatusGauge); err != nil {
		return fmt.Errorf("registry: register health status gauge: %w", err)
	}
	if err := reg.Register(consecutiveFailuresGauge); err != nil {
		return fmt.Errorf("registry: register consecutive failures gauge: %w", err)
	}
	return nil
}

// HealthChecker runs the health loop: for each service, for each resolved
// instance, probe HealthCheck.Path with a bounded timeout, and publish the
// result both into the Registry (so the gateway can route around an
// unhealthy instance) and into Prometheus.
type HealthChecker struct {
	reg          *Registry
	client       *http.Client
	logger       *slog.Logger
	interval     time.Duration
	probeTimeout time.Duration

	// maxRetryCount governs the Unhealthy transition: a service flips only
	// once every instance has failed at least this many consecutive probes.
	maxRetryCount int

	// maxErrorInstances governs per-instance removal reporting: an instance
	// at or beyond this many consecutive failures is logged as removed for
	// the current cycle (it keeps being probed). The Registry keeps no
	// per-instance state, so routing follows the service's HealthStatus
	// alone.
	maxErrorInstances int

	consecutive map[string]int // "service/instance" -> consecutive failure count
}

// NewHealthChecker builds a checker bound to reg, polling every interval
// with per-probe timeout probeTimeout. A failure alone doesn't flip a
// service's status — only maxRetryCount consecutive failures on every
// instance do, avoiding flapping on one bad probe.
func NewHealthChecker(reg *Registry, logger *slog.Logger, interval, probeTimeout time.Duration, maxRetryCount, maxErrorInstances int) *HealthChecker {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetryCount <= 0 {
		maxRetryCount = 3
	}
	if maxErrorInstances <= 0 {
		maxErrorInstances = 5
	}
	return &HealthChecker{
		reg:               reg,
		client:            &http.Client{Timeout: probeTimeout},
		logger:            logger,
		interval:          interval,
		probeTimeout:      probeTimeout,
		maxRetryCount:     maxRetryCount,
		maxErrorInstances: maxErrorInstances,
		consecutive:       make(map[string]int),
	}
}

// Run blocks, probing every interval until ctx is cancelled.
func (h *HealthChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("health checker starting", "interval", h.interval)
	h.probeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("health checker stopped")
			return
		case <-ticker.C:
			h.probeAll(ctx)
		}
	}
}

func (h *HealthChecker) probeAll(ctx context.Context) {
	for _, svc := range h.reg.All() {
		if svc.HealthCheck == nil {
			continue
		}
		instances := resolvedInstances(svc)
		if len(instances) == 0 {
			// No resolved instances at all: the bare Host is the probe target.
			instances = []string{svc.Host}
		}

		anyHealthy := false
		allExhausted := true
		var removed []string
		for _, instance := range instances {
			key := svc.Name + "/" + instance
			if h.probeOne(ctx, svc, instance) {
				anyHealthy = true
				allExhausted = false
				continue
			}
			if h.consecutive[key] < h.maxRetryCount {
				allExhausted = false
			}
			if h.consecutive[key] >= h.maxErrorInstances {
				removed = append(removed, instance)
			}
		}
		if len(removed) > 0 {
			// Removal is reported only; probing continues, and no
			// per-instance routing state is changed.
			h.logger.Warn("instances removed for cycle", "service", svc.Name, "instances", removed)
		}

		switch {
		case anyHealthy:
			h.reg.UpdateHealth(svc.Name, domain.HealthStatus{Kind: domain.HealthHealthy, At: time.Now().UTC()})
		case allExhausted:
			// A failing cycle alone doesn't flip the status; only once every
			// instance has exhausted its consecutive-failure allowance does
			// the service go Unhealthy.
			h.reg.UpdateHealth(svc.Name, domain.HealthStatus{
				Kind:   domain.HealthUnhealthy,
				At:     time.Now().UTC(),
				Reason: "all instances unhealthy",
			})
		}
	}
}

// resolvedInstances collects the deduplicated union of every route's
// Instances on svc — a Service's effective probe targets, not just its
// bare Host.
func resolvedInstances(svc domain.Service) []string {
	seen := make(map[string]bool)
	var out []string
	for _, route := range svc.Routes {
		for _, inst := range route.Instances {
			if !seen[inst] {
				seen[inst] = true
				out = append(out, inst)
			}
		}
	}
	return out
}

func (h *HealthChecker) probeOne(ctx context.Context, svc domain.Service, instance string) bool {
	key := svc.Name + "/" + instance
	url := fmt.Sprintf("%s://%s%s", svc.Protocol, instance, svc.HealthCheck.Path)

	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	healthy := false
	if err == nil {
		resp, rerr := h.client.Do(req)
		if rerr == nil {
			healthy = resp.StatusCode >= 200 && resp.StatusCode < 300
			resp.Body.Close()
		}
	}

	if healthy {
		h.consecutive[key] = 0
		healthStatusGauge.WithLabelValues(svc.Name, instance).Set(1)
		consecutiveFailuresGauge.WithLabelValues(svc.Name, instance).Set(0)
		return true
	}

	h.consecutive[key]++
	healthStatusGauge.WithLabelValues(svc.Name, instance).Set(0)
	consecutiveFailuresGauge.WithLabelValues(svc.Name, instance).Set(float64(h.consecutive[key]))
	if h.consecutive[key] < h.maxRetryCount {
		// Below the flap threshold: log but don't flip the gauge's
		// semantic meaning any further than it already reflects.
		h.logger.Warn("health probe failed", "service", svc.Name, "instance", instance, "consecutive", h.consecutive[key])
	}
	return false
}
