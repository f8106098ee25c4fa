// Package api exposes the dashboard REST surface, the SSE event stream
// and the WebSocket feed.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
	"github.com/autorl-dev/autorl/internal/episodes"
	"github.com/autorl-dev/autorl/internal/feed"
	"github.com/autorl-dev/autorl/internal/sim"
)

// Fleet interface for registry operations
type Fleet interface {
	ListDevices() ([]*domain.Device, error)
	SetDeviceStatus(id string, status domain.DeviceStatus) error
	ListTaskRecords(limit int) ([]*domain.TaskRecord, error)
	InsertTaskRecord(r *domain.TaskRecord) (int64, error)
	UpdateTaskRecord(id int64, status domain.TaskRecordStatus, duration time.Duration) error
	Metrics() (*domain.Metrics, error)
}

// Server is the HTTP API server
type Server struct {
	fleet    Fleet
	engine   *sim.Engine
	episodes *episodes.Log
	hub      *feed.Hub
	sseHub   *SSEHub

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a new API server
func NewServer(fleet Fleet, engine *sim.Engine, log *episodes.Log, hub *feed.Hub, addr string) *Server {
	s := &Server{
		fleet:    fleet,
		engine:   engine,
		episodes: log,
		hub:      hub,
		mux:      http.NewServeMux(),
		sseHub:   NewSSEHub(),
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/devices", s.listDevicesHandler())
	s.mux.HandleFunc("/api/tasks", s.listTasksHandler())
	s.mux.HandleFunc("/api/metrics", s.metricsHandler())
	s.mux.HandleFunc("/api/execute", s.executeHandler())
	s.mux.HandleFunc("/api/memory", s.memoryHandler())
	s.mux.HandleFunc("/api/memory/reset", s.memoryResetHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())
	if s.hub != nil {
		s.mux.HandleFunc("/ws", s.hub.HandleWebSocket)
	}
}

// Handler returns the route mux, for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server and blocks until shutdown
func (s *Server) Start(ctx context.Context) error {
	go s.sseHub.Run(ctx)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends an event to all SSE clients
func (s *Server) Broadcast(event SSEEvent) {
	s.sseHub.Broadcast(event)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
