// Package http exposes the expense service as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expenses/internal/auth"
	"expenses/internal/cache"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
)

// ExpenseAPI is the service surface the handlers call. Every method takes the
// caller resolved from the request, nil when anonymous.
type ExpenseAPI interface {
	Categories(ctx context.Context, caller *core.Caller) ([]core.Category, error)
	ListExpenses(ctx context.Context, caller *core.Caller, q core.ListQuery) (core.ExpensePage, error)
	Summary(ctx context.Context, caller *core.Caller, start, end time.Time) (core.DashboardSummary, error)
	CreateExpense(ctx context.Context, caller *core.Caller, n core.NewExpense) (string, error)
	DeleteExpense(ctx context.Context, caller *core.Caller, id string) error
	ClearAllExpenses(ctx context.Context, caller *core.Caller) (int64, error)
	SeedDemoExpenses(ctx context.Context, caller *core.Caller) (int, error)
	Activity(ctx context.Context, caller *core.Caller, limit int) ([]core.Activity, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of a Server. Readiness and Cache are optional.
type Deps struct {
	Service            ExpenseAPI
	Auth               *auth.Resolver
	Logger             *applog.Logger
	Readiness          Pinger
	Cache              *cache.LRUCache[any]
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	api       ExpenseAPI
	readiness Pinger
	cache     *cache.LRUCache[any]
	logger    *applog.Logger

	traceMiddleware  *trace.Middleware
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector

	appMetrics   *appMetrics
	shutdownOnce sync.Once
	now          func() time.Time
}

// NewServer registers the routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		api:              deps.Service,
		readiness:        deps.Readiness,
		cache:            deps.Cache,
		logger:           logger,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		securityDetector: detector,
		appMetrics:       &appMetrics{uptime: time.Now()},
		now:              time.Now,
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/categories", s.handleCategories)
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("DELETE /api/expenses", s.handleClearExpenses)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("POST /api/expenses/demo", s.handleSeedDemo)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/activity", s.handleActivity)

	limited := s.rateLimiter.Middleware(s.rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded", applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	})(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("/api/", limited)

	var handler http.Handler = mux
	if deps.Auth != nil {
		handler = deps.Auth.Middleware(handler)
	}
	handler = s.securityDetector.Middleware(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad request"})
	})(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// rateLimitKey budgets authenticated callers by id and everyone else by
// client address.
func (s *Server) rateLimitKey(r *http.Request) string {
	if c := auth.CallerFromContext(r.Context()); c.Valid() {
		return "user:" + c.ID
	}
	return "ip:" + s.securityDetector.ExtractClientIP(r)
}

// Shutdown stops background routines and drains the listener. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
