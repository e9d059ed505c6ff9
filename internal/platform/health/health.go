// Package health reports dependency reachability over HTTP.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kitties/pkg/platform/httputil"
	"kitties/pkg/requestcontext"
)

const defaultCheckTimeout = 2 * time.Second

// CheckFunc returns nil when the dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Counter reports the number of stored records, if available.
type Counter func(ctx context.Context) (int, error)

// Response is the body of GET /health.
type Response struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Kitties *int              `json:"kitties,omitempty"`
}

// Handler runs named checks concurrently on every request.
type Handler struct {
	checks  map[string]CheckFunc
	count   Counter
	timeout time.Duration
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Handler {
	return &Handler{checks: map[string]CheckFunc{}, timeout: defaultCheckTimeout, logger: logger}
}

// Add registers a named check. Not safe to call after serving starts.
func (h *Handler) Add(name string, check CheckFunc) *Handler {
	h.checks[name] = check
	return h
}

// WithCount reports the registry size alongside the checks.
func (h *Handler) WithCount(count Counter) *Handler {
	h.count = count
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := Response{Status: "ok", Checks: make(map[string]string, len(h.checks))}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := check(ctx); err != nil {
				h.logger.WarnContext(ctx, "health check failed",
					"check", name,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				result = "unavailable"
			}
			mu.Lock()
			resp.Checks[name] = result
			if result != "ok" {
				resp.Status = "degraded"
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if h.count != nil && resp.Status == "ok" {
		if n, err := h.count(ctx); err == nil {
			resp.Kitties = &n
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}
