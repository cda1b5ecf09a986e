package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server represents the WebSocket server
type Server struct {
	hub    *Hub
	logger *zap.Logger

	startHub sync.Once

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewServer creates a new WebSocket server
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("websocket")
	return &Server{
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Handler starts the hub and returns the websocket routes.
func (s *Server) Handler() http.Handler {
	s.startHub.Do(func() { go s.hub.Run() })

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/exports", s.handleExports)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.Handler(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("websocket server listening", zap.String("port", port))
	return srv.ListenAndServe()
}

// handleExports subscribes the connection to finished export runs.
func (s *Server) handleExports(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
	})
}

// Broadcast sends data to all connected clients.
func (s *Server) Broadcast(data []byte) {
	s.hub.Broadcast(data)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	s.hub.Stop()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
