package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
	logger *zap.Logger
}

// NewRouter wires every route onto a gorilla/mux router.
func NewRouter(handler *Handler, exports *ExportHandler, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rebounds", handler.GetRebounds).Methods("GET")
	api.HandleFunc("/rebounds.xlsx", handler.GetReboundsSpreadsheet).Methods("GET")

	// Play-by-play taxonomy
	api.HandleFunc("/actions", handler.GetActions).Methods("GET")
	api.HandleFunc("/actions/{type}", handler.GetActionSubTypes).Methods("GET")

	// Export runs
	api.HandleFunc("/exports", exports.HandleExportRequest).Methods("POST", "OPTIONS")
	api.HandleFunc("/exports/latest", exports.HandleLatestRun).Methods("GET")
	api.HandleFunc("/exports/latest.xlsx", exports.HandleLatestSpreadsheet).Methods("GET")

	return router
}

// NewServer creates a new REST API server
func NewServer(port string, handler *Handler, exports *ExportHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("rest")

	return &Server{
		port:   port,
		logger: logger,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: NewRouter(handler, exports, logger),
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	s.logger.Info("rest server listening", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
