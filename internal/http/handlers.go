package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type appMetrics struct {
	uptime          time.Time
	expensesCreated int64
	expensesDeleted int64
	demoInserted    int64
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady pings storage with a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.readiness == nil {
		checks["storage"] = "not_configured"
	} else if err := s.readiness.Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		code = http.StatusServiceUnavailable
		s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
	} else {
		checks["storage"] = "ok"
	}

	if s.cache != nil {
		checks["cache"] = map[string]any{"entries": s.cache.Size(), "status": "ok"}
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	tm := s.traceMiddleware.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	sec := s.securityDetector.GetMetrics()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", tm.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", tm.ServerErrors)
	metric("http_response_time_avg_us", "gauge", "Average response time in microseconds", tm.AverageResponseTime)
	metric("expenses_created_total", "counter", "Expenses created through the API", atomic.LoadInt64(&s.appMetrics.expensesCreated))
	metric("expenses_deleted_total", "counter", "Expenses deleted through the API", atomic.LoadInt64(&s.appMetrics.expensesDeleted))
	metric("demo_expenses_inserted_total", "counter", "Demo expenses inserted", atomic.LoadInt64(&s.appMetrics.demoInserted))

	if s.cache != nil {
		hits, misses := s.cache.Stats()
		metric("cache_hits_total", "counter", "Read-through cache hits", hits)
		metric("cache_misses_total", "counter", "Read-through cache misses", misses)
		metric("cache_entries", "gauge", "Current cache entries", s.cache.Size())
	}

	metric("rate_limit_rejections_total", "counter", "Requests rejected by the rate limiter", rl.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rl.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests detected", sec.SuspiciousRequests)
	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n",
		time.Since(s.appMetrics.uptime).Seconds())
}
