package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one backing service
type CheckFunc func(ctx context.Context) error

// HealthChecker reports the health of the descriptor stores behind the
// collector. A failing critical check makes the service unhealthy; a
// failing optional check (such as the shared cache) only degrades it.
type HealthChecker struct {
	version string

	mu     sync.RWMutex
	checks map[string]check
}

type check struct {
	fn       CheckFunc
	critical bool
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewHealthChecker creates a health checker reporting version
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{version: version, checks: make(map[string]check)}
}

// AddCheck registers a named probe
func (h *HealthChecker) AddCheck(name string, critical bool, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check{fn: fn, critical: critical}
}

// SQLCheck pings a descriptor database
func SQLCheck(db *sql.DB) CheckFunc {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		var one int
		return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	}
}

// RedisCheck pings a shared descriptor cache
func RedisCheck(client *redis.Client) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Check runs every probe and aggregates the result
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(names)),
	}
	for _, name := range names {
		h.mu.RLock()
		c := h.checks[name]
		h.mu.RUnlock()

		start := time.Now()
		err := c.fn(ctx)
		dep := DependencyStatus{Status: StatusHealthy, Latency: time.Since(start), Timestamp: time.Now()}
		if err != nil {
			dep.Message = err.Error()
			dep.Status = StatusDegraded
			if c.critical {
				dep.Status = StatusUnhealthy
			}
		}
		status.Dependencies[name] = dep

		switch {
		case dep.Status == StatusUnhealthy:
			status.Status = StatusUnhealthy
		case dep.Status == StatusDegraded && status.Status == StatusHealthy:
			status.Status = StatusDegraded
		}
	}
	return status
}

// Liveness always answers 200 while the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness answers 503 when a critical dependency is down
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)
	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
