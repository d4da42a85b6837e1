// Package api exposes the catalog over HTTP. The transport is a thin
// envelope: every operation resolves the same parameters (name or type,
// format, content, role) and defers all semantics to the catalog, so the
// same inputs produce the same validation outcome regardless of
// transport.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vigil/catalog"
	"vigil/config"
	"vigil/metrics"
	"vigil/rbac"
)

// rateLimiterEntry holds a per-client rate limiter with last seen time.
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// API holds the HTTP server fronting the catalog.
type API struct {
	router         *mux.Router
	server         *http.Server
	catalog        *catalog.Catalog
	authz          rbac.Authorizer
	config         *config.Config
	logger         *zap.SugaredLogger
	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
	stopCh         chan struct{}
}

// NewAPI creates the API server over a catalog and an authorizer.
func NewAPI(cat *catalog.Catalog, authz rbac.Authorizer, cfg *config.Config, logger *zap.SugaredLogger) *API {
	a := &API{
		router:       mux.NewRouter(),
		catalog:      cat,
		authz:        authz,
		config:       cfg,
		logger:       logger,
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
	}
	a.setupRoutes()
	a.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return a
}

func (a *API) setupRoutes() {
	a.router.Use(a.loggingMiddleware)
	a.router.Use(a.rateLimitMiddleware)

	// POST matches only the create and validate routes; the generic
	// resource route carries GET, PUT and DELETE.
	a.router.HandleFunc("/catalog/resources/{type}", a.postResource).Methods("POST")
	a.router.HandleFunc("/catalog/resource/{name:.+}/validate", a.validateResource).Methods("POST")
	a.router.HandleFunc("/catalog/resource/{name:.+}", a.getResource).Methods("GET")
	a.router.HandleFunc("/catalog/resource/{name:.+}", a.putResource).Methods("PUT")
	a.router.HandleFunc("/catalog/resource/{name:.+}", a.deleteResource).Methods("DELETE")

	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Router returns the configured router, used by tests to serve requests
// without a listener.
func (a *API) Router() http.Handler {
	return a.router
}

// Start runs the HTTP server until Shutdown. It also starts the rate
// limiter janitor.
func (a *API) Start() error {
	go a.cleanupRateLimiters()
	a.logger.Infof("API server listening on %s", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *API) Shutdown(ctx context.Context) error {
	close(a.stopCh)
	return a.server.Shutdown(ctx)
}

// loggingMiddleware attaches a request id and logs each request.
func (a *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		a.logger.Debugw("request served",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// rateLimitMiddleware applies a per-client token bucket.
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !a.limiterFor(host).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) limiterFor(host string) *rate.Limiter {
	a.rateLimitersMu.Lock()
	defer a.rateLimitersMu.Unlock()

	entry, ok := a.rateLimiters[host]
	if !ok {
		entry = &rateLimiterEntry{
			limiter: rate.NewLimiter(
				rate.Limit(a.config.API.RateLimit.RequestsPerSecond),
				a.config.API.RateLimit.Burst),
		}
		a.rateLimiters[host] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanupRateLimiters drops limiters for clients not seen for a while.
func (a *API) cleanupRateLimiters() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.rateLimitersMu.Lock()
			for host, entry := range a.rateLimiters {
				if time.Since(entry.lastSeen) > 10*time.Minute {
					delete(a.rateLimiters, host)
				}
			}
			a.rateLimitersMu.Unlock()
		}
	}
}

func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
