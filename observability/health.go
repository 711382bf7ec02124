package observability

import (
	"context"
	"sort"
	"sync"
)

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth describes the overall health of a service and its components.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component health result and degrades overall status if needed.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// CheckFunc reports the health of one component.
type CheckFunc func(ctx context.Context) Health

// HealthRegistry holds named health checks for a service.
type HealthRegistry struct {
	service string
	version string

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry(service, version string) *HealthRegistry {
	return &HealthRegistry{service: service, version: version, checks: make(map[string]CheckFunc)}
}

// Register adds or replaces a named check.
func (r *HealthRegistry) Register(name string, check CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// Check runs every registered check in name order.
func (r *HealthRegistry) Check(ctx context.Context) *ServiceHealth {
	r.mu.RLock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(r.checks))
	for k, v := range r.checks {
		checks[k] = v
	}
	r.mu.RUnlock()

	sort.Strings(names)
	sh := NewServiceHealth(r.service, r.version)
	for _, name := range names {
		h := checks[name](ctx)
		if h.Name == "" {
			h.Name = name
		}
		sh.AddComponent(h)
	}
	return sh
}
