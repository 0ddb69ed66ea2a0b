package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ecgrisk/internal/usage"
)

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// OpsDeps feeds the ops router.
type OpsDeps struct {
	Usage    *usage.Service
	SSE      *SSEHub
	WS       *WSHub
	Sessions func() int
	Checks   map[string]HealthCheck
}

// HealthTimeout bounds every dependency check.
var HealthTimeout = 2 * time.Second

// NewOpsRouter serves /healthz and /metrics for operators.
func NewOpsRouter(deps OpsDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", deps.healthz)
	r.Get("/metrics", deps.metrics)
	r.Get("/metrics/sessions", deps.sessionMetrics)
	return r
}

func (d OpsDeps) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), HealthTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(d.Checks))
	for name, check := range d.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]interface{}{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// metrics writes counters in the Prometheus text exposition format.
func (d OpsDeps) metrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	var sum usage.Summary
	if d.Usage != nil {
		sum = d.Usage.Summary()
	}
	counter(w, "ecgrisk_frames_total", "Frames published.", sum.Frames)
	counter(w, "ecgrisk_predictions_total", "Predictions published.", sum.Predictions)
	counter(w, "ecgrisk_lvsd_predictions_total", "Predictions at or above the risk threshold.", sum.LVSD)
	counter(w, "ecgrisk_sample_bytes_total", "float32 sample bytes published.", sum.SampleBytes)

	if d.Sessions != nil {
		gauge(w, "ecgrisk_sessions", "Live dashboard sessions.", d.Sessions())
	}
	if d.SSE != nil {
		clients := 0
		for _, id := range d.SSE.ActiveSessions() {
			clients += d.SSE.ClientCount(id)
		}
		gauge(w, "ecgrisk_sse_clients", "Connected SSE clients.", clients)
	}
	if d.WS != nil {
		gauge(w, "ecgrisk_ws_clients", "Connected websocket clients.", d.WS.Clients())
	}
}

func (d OpsDeps) sessionMetrics(w http.ResponseWriter, _ *http.Request) {
	var sessions []usage.SessionUsage
	if d.Usage != nil {
		sessions = d.Usage.Summary().Sessions
	}
	if sessions == nil {
		sessions = []usage.SessionUsage{}
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].LastSeen.After(sessions[j].LastSeen) })
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}

func counter(w http.ResponseWriter, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, v)
}

func gauge(w http.ResponseWriter, name, help string, v int) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n", name, help, name, name, v)
}
