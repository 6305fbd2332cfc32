package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/nim"
	"github.com/wricardo/nim-lobby/game/service"
)

// Server represents the REST API server
type Server struct {
	service   service.LobbyService
	ws        http.Handler
	staticDir string
	router    *mux.Router
	startedAt time.Time
}

// NewServer creates a new API server. ws handles websocket upgrades on /ws
// and may be nil; staticDir is served at / when not empty.
func NewServer(lobbyService service.LobbyService, ws http.Handler, staticDir string) *Server {
	s := &Server{
		service:   lobbyService,
		ws:        ws,
		staticDir: staticDir,
		router:    mux.NewRouter(),
		startedAt: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Lobby
	api.HandleFunc("/lobby", s.handleLobby).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/players", s.handleListPlayers).Methods("GET")

	// Server
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/rules", s.handleRules).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files for the lobby page
	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Lobby Handlers

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	query := r.URL.Query()
	state := query.Get("state") // in-lobby, in-game, game-over

	if state != "" {
		filtered := make([]lobby.GameInfo, 0, len(games))
		for _, g := range games {
			if string(g.State) == state {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}
	total := len(games)

	// Apply limit if specified
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(games) {
			games = games[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"total": total,
		"games": games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "Invalid game id")
		return
	}

	game, err := s.service.GetGame(r.Context(), id)
	if errors.Is(err, service.ErrGameNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.service.ListPlayers(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(players),
		"players": players,
	})
}

// Server Handlers

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.service.GetRules(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"easy":    rules.Easy,
		"hard":    rules.Hard,
		"targets": nim.Targets(rules.Hard.Max),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.ws == nil {
		respondError(w, http.StatusServiceUnavailable, "WebSocket not available")
		return
	}
	s.ws.ServeHTTP(w, r)
}
