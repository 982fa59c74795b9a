// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/monster-tracker/internal/analysis"
	"github.com/monster-tracker/internal/logging"
	"github.com/monster-tracker/internal/metrics"
	"github.com/monster-tracker/internal/models"
	"github.com/monster-tracker/internal/report"
	"github.com/monster-tracker/internal/service"
)

// Service interfaces for dependency injection and testing

// ReportServiceInterface defines the report operations served by the API
type ReportServiceInterface interface {
	Stats(ctx context.Context, q service.StatsQuery) (analysis.Extremes, error)
	Histogram(ctx context.Context, q service.StatsQuery) ([]analysis.ItemTotal, error)
	Compare(ctx context.Context, oldPath, newPath string, mode analysis.DiffMode) (analysis.DiffResult, error)
	Imbalance(ctx context.Context, path string, factor float64) ([]analysis.ImbalanceReport, error)
	Search(ctx context.Context, kind service.SearchKind, query string) ([]report.PlayerLine, error)
}

// ArchiveServiceInterface defines the archive operations served by the API
type ArchiveServiceInterface interface {
	List(ctx context.Context, limit int) ([]*models.ArchivedSnapshot, error)
	Get(ctx context.Context, id string) (*models.ArchivedSnapshot, error)
	CompareArchived(ctx context.Context, id, newPath string, mode analysis.DiffMode) (analysis.DiffResult, error)
	ItemHistory(ctx context.Context, query string, from, to *time.Time) ([]models.ItemCountPoint, error)
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	reports    ReportServiceInterface
	archive    ArchiveServiceInterface
	metrics    *metrics.Registry
	logger     *logging.Logger
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestsPerSecond int  // per client, 0 disables limiting
	OnlyArchi         bool // default of the archi query parameter
}

// NewServer creates a new API server instance. archive may be nil when no
// archive database is configured.
func NewServer(
	config *ServerConfig,
	reports ReportServiceInterface,
	archive ArchiveServiceInterface,
	m *metrics.Registry,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	s := &Server{
		router:  mux.NewRouter(),
		reports: reports,
		archive: archive,
		metrics: m,
		logger:  logger.WithField("component", "api"),
		config:  config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Order matters: recovery must wrap everything below logging
	s.router.Use(s.LoggingMiddleware)
	s.router.Use(s.RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	if s.config.RequestsPerSecond > 0 {
		s.router.Use(RateLimitMiddleware(NewRateLimiter(s.config.RequestsPerSecond)))
	}
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Report endpoints
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/histogram", s.handleHistogram).Methods("GET")
	api.HandleFunc("/compare", s.handleCompare).Methods("GET")
	api.HandleFunc("/imbalance", s.handleImbalance).Methods("GET")
	api.HandleFunc("/search/{kind:proposing|researching}", s.handleSearch).Methods("GET")

	// Archive endpoints
	api.HandleFunc("/archive", s.handleListArchive).Methods("GET")
	api.HandleFunc("/archive/{id}", s.handleGetArchive).Methods("GET")
	api.HandleFunc("/history/{item}", s.handleItemHistory).Methods("GET")

	// Preflight requests are answered by CORSMiddleware
	s.router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "monster-tracker",
		"archive": s.archive != nil,
	})
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Infof("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
