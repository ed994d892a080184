package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/domain/conversation"
	"github.com/corey/gourmand/internal/logging"
	"github.com/corey/gourmand/internal/ports"
)

var httpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gourmand_http_requests_total",
		Help: "Total number of HTTP requests served by the local server",
	},
	[]string{"path", "status"},
)

// SessionInfo reports on the live conversation.
type SessionInfo interface {
	Stats() conversation.Stats
}

// Catalog lists persisted data. ports.Storage satisfies it.
type Catalog interface {
	ListRecipes() ([]*ports.RecipeRecord, error)
	ListSessions() ([]*ports.Session, error)
}

// Server serves metrics and the JSON API over HTTP.
type Server struct {
	session  SessionInfo
	catalog  Catalog
	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once

	addrFilePath string // <data-dir>/run/http.addr
}

// NewServer creates an HTTP server. The addrFilePath is where the bound
// address is written for discovery; empty disables it.
func NewServer(session SessionInfo, catalog Catalog, addrFilePath string) *Server {
	return &Server{
		session:      session,
		catalog:      catalog,
		addrFilePath: addrFilePath,
	}
}

// Handler returns the routed handler, instrumented.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/recipes", s.handleRecipes)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	if static, err := fs.Sub(staticFS, "static"); err == nil {
		mux.Handle("GET /", http.FileServerFS(static))
	}
	return countRequests(mux)
}

// Start begins listening on addr (host:port; port 0 picks a free one) and
// writes the bound address to the discovery file.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.started = time.Now()

	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaults.ServerReadHeaderTimeout,
		ErrorLog:          logging.NewLogLogger(slog.LevelWarn),
	}

	if s.addrFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(s.addrFilePath), 0o755); err == nil {
			if err := os.WriteFile(s.addrFilePath, []byte(s.Addr()), 0o644); err != nil {
				slog.Warn("could not write address file", "path", s.addrFilePath, "error", err)
			}
		}
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", "error", err)
		}
	}()
	slog.Info("http server listening", "url", s.URL())
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), defaults.ServerShutdownTimeout)
			defer cancel()
			if err := s.httpSrv.Shutdown(ctx); err != nil {
				slog.Warn("http server shutdown", "error", err)
			}
		}
		if s.addrFilePath != "" {
			os.Remove(s.addrFilePath)
		}
	})
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// HealthResult is the body of GET /api/health.
type HealthResult struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
	Uptime    string `json:"uptime"`
}

// RecipesResult is the body of GET /api/recipes.
type RecipesResult struct {
	Recipes []*ports.RecipeRecord `json:"recipes"`
	Count   int                   `json:"count"`
}

// SessionSummary is one entry of GET /api/sessions. Message bodies are
// omitted.
type SessionSummary struct {
	ID        string           `json:"id"`
	Model     string           `json:"model"`
	Turns     int              `json:"turns"`
	Messages  int              `json:"messages"`
	Usage     ports.TokenUsage `json:"usage"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SessionsResult is the body of GET /api/sessions.
type SessionsResult struct {
	Sessions []SessionSummary `json:"sessions"`
	Count    int              `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	result := HealthResult{Status: "ok"}
	if !s.started.IsZero() {
		result.Uptime = time.Since(s.started).Round(time.Second).String()
	}
	if s.session != nil {
		st := s.session.Stats()
		result.Model = st.Model
		result.SessionID = st.SessionID
		result.Turns = st.Turns
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecipes(w http.ResponseWriter, _ *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}
	recs, err := s.catalog.ListRecipes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []*ports.RecipeRecord{}
	}
	writeJSON(w, http.StatusOK, RecipesResult{Recipes: recs, Count: len(recs)})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}
	sessions, err := s.catalog.ListSessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result := SessionsResult{Sessions: make([]SessionSummary, 0, len(sessions))}
	for _, sess := range sessions {
		result.Sessions = append(result.Sessions, SessionSummary{
			ID:        sess.ID,
			Model:     sess.Model,
			Turns:     sess.Turns,
			Messages:  len(sess.Messages),
			Usage:     sess.Usage,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
		})
	}
	result.Count = len(result.Sessions)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(pathLabel(r.URL.Path), strconv.Itoa(rec.status)).Inc()
	})
}

// pathLabel keeps metric cardinality bounded.
func pathLabel(p string) string {
	switch p {
	case "/metrics", "/api/health", "/api/recipes", "/api/sessions", "/":
		return p
	default:
		return "other"
	}
}
