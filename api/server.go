package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/config"
	"github.com/wricardo/fps-arena-relay/game/registry"
	"github.com/wricardo/fps-arena-relay/game/service"
)

// ConfigLister lists arena files available to the server.
type ConfigLister interface {
	ListConfigs() ([]config.ConfigInfo, error)
}

// Server represents the REST API server
type Server struct {
	arena   service.ArenaService
	ws      http.Handler
	configs ConfigLister
	version string
	router  *mux.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithConfigs exposes arena files under /api/configs.
func WithConfigs(configs ConfigLister) Option {
	return func(s *Server) { s.configs = configs }
}

// WithVersion sets the version reported by /api/health.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer creates a new API server. ws serves the /ws upgrade.
func NewServer(arena service.ArenaService, ws http.Handler, opts ...Option) *Server {
	s := &Server{
		arena:   arena,
		ws:      ws,
		version: "dev",
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Room inspection
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")

	// Arena rules
	api.HandleFunc("/rules", s.handleRules).Methods("GET")
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")

	// WebSocket
	if s.ws != nil {
		s.router.Handle("/ws", s.ws)
	}
}

// Mount attaches an extra handler, e.g. the MCP endpoint.
func (s *Server) Mount(path string, h http.Handler) {
	s.router.Handle(path, h)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.arena.ListRooms(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"rooms": rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	info, err := s.arena.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Rules Handlers

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.arena.Rules(r.Context()))
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	if s.configs == nil {
		respondJSON(w, http.StatusOK, []config.ConfigInfo{})
		return
	}

	configs, err := s.configs.ListConfigs()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if configs == nil {
		configs = []config.ConfigInfo{}
	}
	respondJSON(w, http.StatusOK, configs)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.arena.Stats(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"version":     s.version,
		"rooms":       stats.Rooms,
		"players":     stats.Players,
		"in_progress": stats.InProgress,
		"connections": stats.Connections,
	})
}
