package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pageguard/pageguard/internal/cache"
	"github.com/pageguard/pageguard/internal/classifier"
	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/events"
	"github.com/pageguard/pageguard/internal/logger"
	"github.com/pageguard/pageguard/internal/logstore"
	"github.com/pageguard/pageguard/internal/moderation"
	"github.com/pageguard/pageguard/internal/transform"
	"github.com/pageguard/pageguard/internal/web"
)

// Server is the moderation API server.
type Server struct {
	config      *config.Config
	logger      *logger.Logger
	detector    *moderation.Detector
	transformer *transform.Transformer
	recoverer   *transform.Recoverer
	classifier  *classifier.Client
	cache       *cache.ResultCache
	store       logstore.Store
	hub         *events.Hub
	limiter     *ipLimiters
	router      *mux.Router
	server      *http.Server
}

// Deps carries the injected collaborators. Classifier, cache, and store may
// be nil; the server degrades to regex-only, uncached, reference-less
// operation accordingly.
type Deps struct {
	Detector    *moderation.Detector
	Transformer *transform.Transformer
	Recoverer   *transform.Recoverer
	Classifier  *classifier.Client
	Cache       *cache.ResultCache
	Store       logstore.Store
}

// New creates a new moderation server instance
func New(cfg *config.Config, deps Deps, log *logger.Logger) (*Server, error) {
	if deps.Detector == nil || deps.Transformer == nil || deps.Recoverer == nil {
		return nil, fmt.Errorf("detector, transformer, and recoverer are required")
	}

	hub := events.NewHub(log.WithComponent("events").Logger)
	router := mux.NewRouter()

	server := &Server{
		config:      cfg,
		logger:      log.WithComponent("server"),
		detector:    deps.Detector,
		transformer: deps.Transformer,
		recoverer:   deps.Recoverer,
		classifier:  deps.Classifier,
		cache:       deps.Cache,
		store:       deps.Store,
		hub:         hub,
		limiter:     newIPLimiters(cfg.RateLimit),
		router:      router,
	}

	server.setupRoutes()

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Info endpoint
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// Dashboard endpoint - embedded HTML
	s.router.HandleFunc("/", web.ServeDashboard).Methods("GET")
	s.router.HandleFunc("/dashboard", web.ServeDashboard).Methods("GET")

	// WebSocket endpoint for dashboard
	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.handleWebSocket).Methods("GET")
	}

	// Moderation API
	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/moderate", s.handleModerate).Methods("POST")
	api.HandleFunc("/recover", s.handleRecover).Methods("POST")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting moderation server")

	// Start event hub in a separate goroutine
	go s.hub.Run()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping moderation server")
	if s.cache != nil {
		defer s.cache.Close()
	}
	if s.store != nil {
		defer s.store.Close()
	}
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"name":"pageguard",
		"version":"0.1.0",
		"moderation_enabled":%t,
		"classifier_enabled":%t,
		"categories":%d
	}`, s.config.Moderation.Enabled, s.config.Classifier.Enabled, len(s.detector.EnabledCategories()))
}

// handleWebSocket handles WebSocket connections for the dashboard
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r)
}

// GetEventHub returns the event hub for broadcasting
func (s *Server) GetEventHub() *events.Hub {
	return s.hub
}
