// Package web serves the timeline widget over HTTP: a standalone page, the
// bare script, a health check and Prometheus metrics.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"simtl/internal/config"
	appLog "simtl/internal/log"
	"simtl/internal/timeline"
)

const renderKey = "widget"

// Renderer produces the widget output. *timeline.Widget implements it.
type Renderer interface {
	Render(ctx context.Context) (timeline.Output, error)
}

// Server exposes the widget. Rendered output is kept in memory for
// cfg.CacheTTL so the provider is not hit on every request.
type Server struct {
	cfg    *config.Config
	widget Renderer
	mux    *http.ServeMux

	cache *expirable.LRU[string, timeline.Output]
	group singleflight.Group
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, widget Renderer) *Server {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		widget: widget,
		mux:    http.NewServeMux(),
		cache:  expirable.NewLRU[string, timeline.Output](1, nil, ttl),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler: metrics, then basic auth when
// configured, then the routes.
func (s *Server) Handler() http.Handler {
	h := metricsMiddleware(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Refresh drops the cached output; the next request renders afresh.
func (s *Server) Refresh() {
	s.cache.Purge()
	appLog.Debug("render cache purged")
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("GET /timeline.js", s.handleScript)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="simtl", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// render returns the cached output or renders once for all concurrent
// callers.
func (s *Server) render(ctx context.Context) (timeline.Output, error) {
	if out, ok := s.cache.Get(renderKey); ok {
		CacheHits.Inc()
		return out, nil
	}

	v, err, _ := s.group.Do(renderKey, func() (any, error) {
		start := time.Now()
		out, err := s.widget.Render(context.WithoutCancel(ctx))
		RenderDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			RendersTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		RendersTotal.WithLabelValues("ok").Inc()
		RenderedEvents.Set(float64(out.Events))
		SkippedRecords.Add(float64(out.Skipped))
		s.cache.Add(renderKey, out)
		return out, nil
	})
	if err != nil {
		return timeline.Output{}, err
	}
	return v.(timeline.Output), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	out, err := s.render(r.Context())
	if err != nil {
		appLog.Error("render failed", err, "path", r.URL.Path)
		http.Error(w, "failed to render timeline", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := WritePage(w, out, Page{Title: r.URL.Query().Get("title")}); err != nil {
		appLog.Error("page write failed", err)
	}
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	out, err := s.render(r.Context())
	if err != nil {
		appLog.Error("render failed", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "failed to render timeline")
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(out.Script))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
