package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ryanbastic/go-gardenledger/internal/circuitbreaker"
)

const readyTimeout = 3 * time.Second

// Pinger is satisfied by the content store backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// breakerStater is implemented by stores guarded by a circuit breaker.
type breakerStater interface {
	State() circuitbreaker.State
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	backends map[string]Pinger
	logger   *slog.Logger
}

func NewHealthHandler(backends map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{backends: backends, logger: logger}
}

type backendStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Breaker   string `json:"breaker,omitempty"`
	Error     string `json:"error,omitempty"`
}

type readyzResponse struct {
	Status   string                   `json:"status"`
	Backends map[string]backendStatus `json:"backends,omitempty"`
}

// Livez reports ok whenever the process can serve HTTP.
func (h *HealthHandler) Livez(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings every store backend concurrently. A backend whose breaker is
// open reports unavailable even when its ping succeeds.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if len(h.backends) == 0 {
		writeJSON(w, http.StatusOK, readyzResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	resp := readyzResponse{
		Status:   "ok",
		Backends: make(map[string]backendStatus, len(h.backends)),
	}

	for name, p := range h.backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := check(ctx, p)
			mu.Lock()
			resp.Backends[name] = st
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := http.StatusOK
	for _, st := range resp.Backends {
		if st.Status != "ok" {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if status != http.StatusOK {
		h.logger.Warn("readiness check failed", "backends", resp.Backends)
	}
	writeJSON(w, status, resp)
}

func check(ctx context.Context, p Pinger) backendStatus {
	start := time.Now()
	err := p.Ping(ctx)
	st := backendStatus{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		st.Status = "error"
		st.Error = err.Error()
	}
	if b, ok := p.(breakerStater); ok {
		state := b.State()
		st.Breaker = state.String()
		if state == circuitbreaker.Open && err == nil {
			st.Status = "error"
			st.Error = "circuit open"
		}
	}
	return st
}
