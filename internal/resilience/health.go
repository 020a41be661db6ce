// Package resilience provides health checking for the ledger's collaborators.
package resilience

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name      string                 `json:"name"`
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message"`
	LastCheck time.Time              `json:"lastCheck"`
	Latency   time.Duration          `json:"latency"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthCheck represents a health check function.
type HealthCheck func(ctx context.Context) ComponentHealth

// HealthConfig holds health checker configuration.
type HealthConfig struct {
	Timeout            time.Duration
	GoroutineThreshold int
}

// DefaultHealthConfig returns default configuration.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Timeout:            5 * time.Second,
		GoroutineThreshold: 1000,
	}
}

// HealthChecker runs registered checks on demand.
type HealthChecker struct {
	mu         sync.RWMutex
	cfg        HealthConfig
	startTime  time.Time
	components map[string]HealthCheck
}

// NewHealthChecker creates a checker with no components.
func NewHealthChecker(cfg HealthConfig) *HealthChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHealthConfig().Timeout
	}
	return &HealthChecker{
		cfg:        cfg,
		startTime:  time.Now(),
		components: make(map[string]HealthCheck),
	}
}

// RegisterComponent registers a health check for a component.
func (h *HealthChecker) RegisterComponent(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = check
}

// SystemHealth represents overall system health.
type SystemHealth struct {
	Status     HealthStatus      `json:"status"`
	Uptime     string            `json:"uptime"`
	StartTime  time.Time         `json:"startTime"`
	Components []ComponentHealth `json:"components"`
	Goroutines int               `json:"goroutines"`
}

// Check runs every component check concurrently. The overall status is the
// worst component status.
func (h *HealthChecker) Check(ctx context.Context) SystemHealth {
	h.mu.RLock()
	components := make(map[string]HealthCheck, len(h.components))
	for k, v := range h.components {
		components[k] = v
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	var wg sync.WaitGroup
	results := make(chan ComponentHealth, len(components)+1)

	for name, check := range components {
		wg.Add(1)
		go func(n string, c HealthCheck) {
			defer wg.Done()
			results <- runCheck(ctx, n, c)
		}(name, check)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- h.checkGoroutines()
	}()

	wg.Wait()
	close(results)

	health := SystemHealth{
		Status:     HealthStatusHealthy,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		StartTime:  h.startTime,
		Goroutines: runtime.NumGoroutine(),
	}
	for c := range results {
		health.Components = append(health.Components, c)
		switch c.Status {
		case HealthStatusUnhealthy:
			health.Status = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if health.Status == HealthStatusHealthy {
				health.Status = HealthStatusDegraded
			}
		}
	}
	sort.Slice(health.Components, func(i, j int) bool {
		return health.Components[i].Name < health.Components[j].Name
	})
	return health
}

// runCheck times one check and turns a panic into an unhealthy result.
func runCheck(ctx context.Context, name string, check HealthCheck) (health ComponentHealth) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			health = ComponentHealth{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("panic recovered: %v", r),
			}
		}
		health.Name = name
		health.LastCheck = time.Now()
		if health.Latency == 0 {
			health.Latency = time.Since(start)
		}
	}()
	return check(ctx)
}

func (h *HealthChecker) checkGoroutines() ComponentHealth {
	n := runtime.NumGoroutine()
	health := ComponentHealth{
		Name:      "goroutines",
		LastCheck: time.Now(),
		Details:   map[string]interface{}{"count": n},
	}
	if n > h.cfg.GoroutineThreshold {
		health.Status = HealthStatusDegraded
		health.Message = fmt.Sprintf("High goroutine count: %d", n)
	} else {
		health.Status = HealthStatusHealthy
		health.Message = fmt.Sprintf("Goroutine count: %d", n)
	}
	return health
}

// StoreHealthCheck creates a health check for the position store.
func StoreHealthCheck(ping func(ctx context.Context) error, slow time.Duration) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		var health ComponentHealth

		start := time.Now()
		err := ping(ctx)
		health.Latency = time.Since(start)

		switch {
		case err != nil:
			health.Status = HealthStatusUnhealthy
			health.Message = fmt.Sprintf("Store ping failed: %v", err)
		case slow > 0 && health.Latency > slow:
			health.Status = HealthStatusDegraded
			health.Message = fmt.Sprintf("Store slow: %v", health.Latency)
		default:
			health.Status = HealthStatusHealthy
			health.Message = fmt.Sprintf("Store healthy: %v", health.Latency)
		}
		return health
	}
}
