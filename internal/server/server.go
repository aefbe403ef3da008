package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/draganm/primes/internal/db"
	"github.com/draganm/primes/internal/metrics"
	"github.com/draganm/primes/internal/models"
)

// Config holds server configuration
type Config struct {
	DatabaseURL     string
	Port            int
	MaxCount        int
	CleanupInterval int // seconds
	RunRetention    int // hours
	LogLevel        string
}

// RunStore persists enumeration runs
type RunStore interface {
	Name() string
	Ping(ctx context.Context) error
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]models.Run, error)
	DeleteRunsOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Server serves prime enumerations over HTTP
type Server struct {
	config *Config
	conn   *db.Connection
	store  RunStore
	server *http.Server
	wg     sync.WaitGroup
	port   atomic.Int64 // actual port (for testing with port 0)
}

const (
	defaultMaxCount  = 100000
	defaultListLimit = 50
	maxListLimit     = 1000
)

// New creates a new server instance. The run store is chosen in Run.
func New(cfg *Config) (*Server, error) {
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = defaultMaxCount
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 3600
	}
	if cfg.RunRetention <= 0 {
		cfg.RunRetention = 168
	}
	return &Server{
		config: cfg,
	}, nil
}

// NewWithStore creates a server that records runs in store
func NewWithStore(cfg *Config, store RunStore) (*Server, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	s.store = store
	return s, nil
}

// Run starts the server and blocks until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	if s.store == nil {
		if err := s.openStore(ctx); err != nil {
			return err
		}
	}
	if s.conn != nil {
		defer s.conn.Close()
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.port.Store(int64(listener.Addr().(*net.TCPAddr).Port))

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.startWorkers(ctx)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", s.Port(), "store", s.store.Name())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	s.wg.Wait()
	return nil
}

func (s *Server) openStore(ctx context.Context) error {
	if s.config.DatabaseURL == "" {
		slog.Warn("No database configured, runs are kept in memory")
		s.store = db.NewMemoryStore()
		return nil
	}

	conn, err := db.WaitForConnection(ctx, db.Config{DatabaseURL: s.config.DatabaseURL}, 5)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Connected to database")

	if err := conn.RunMigrations(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Migrations completed successfully")

	s.conn = conn
	s.store = db.NewPostgresStore(conn)
	return nil
}

// Handler returns the API handler wrapped with the metrics middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return metrics.HTTPMiddleware(mux)
}

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.Handle("/api/v1/metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/runs", s.handleCreateRun)
	mux.HandleFunc("GET /api/v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.handleGetRun)

	mux.HandleFunc("GET /api/v1/primes", s.handlePrimes)
	mux.HandleFunc("GET /api/v1/divide", s.handleDivide)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "connected"

	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "disconnected"
		status = "unhealthy"
	}

	response := map[string]string{
		"status":   status,
		"database": dbStatus,
		"store":    s.store.Name(),
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, response)
}

func (s *Server) startWorkers(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runCleaner(ctx)
	}()
}

func (s *Server) runCleaner(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.config.CleanupInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupOldRuns(ctx)
		}
	}
}

func (s *Server) cleanupOldRuns(ctx context.Context) {
	retention := time.Duration(s.config.RunRetention) * time.Hour
	deleted, err := s.store.DeleteRunsOlderThan(ctx, retention)
	if err != nil {
		slog.Error("Failed to cleanup old runs", "error", err)
		return
	}
	slog.Debug("Cleaned up old runs", "deleted", deleted)
	metrics.OldRunsCleaned.Add(float64(deleted))
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string, context map[string]interface{}) {
	response := map[string]interface{}{
		"error": message,
	}
	if context != nil {
		response["context"] = context
	}
	s.writeJSON(w, code, response)
}

// Port returns the actual port the server is listening on
func (s *Server) Port() int {
	return int(s.port.Load())
}
