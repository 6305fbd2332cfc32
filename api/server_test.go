package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/nim"
	"github.com/wricardo/nim-lobby/game/service"
)

// MockLobbyService implements service.LobbyService for testing
type MockLobbyService struct {
	ListGamesFunc   func(ctx context.Context) ([]lobby.GameInfo, error)
	GetGameFunc     func(ctx context.Context, id uint64) (*lobby.GameInfo, error)
	ListPlayersFunc func(ctx context.Context) ([]lobby.PlayerInfo, error)
	GetStatsFunc    func(ctx context.Context) (*lobby.Stats, error)
	GetRulesFunc    func(ctx context.Context) (*nim.Rules, error)
}

func (m *MockLobbyService) ListGames(ctx context.Context) ([]lobby.GameInfo, error) {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx)
	}
	return sampleGames(), nil
}

func (m *MockLobbyService) GetGame(ctx context.Context, id uint64) (*lobby.GameInfo, error) {
	if m.GetGameFunc != nil {
		return m.GetGameFunc(ctx, id)
	}
	for _, g := range sampleGames() {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, service.ErrGameNotFound
}

func (m *MockLobbyService) ListPlayers(ctx context.Context) ([]lobby.PlayerInfo, error) {
	if m.ListPlayersFunc != nil {
		return m.ListPlayersFunc(ctx)
	}
	return []lobby.PlayerInfo{
		{ID: 1, Name: "Alice", TraceID: "trace-1", Joined: true, GameID: 1},
		{ID: 2, Name: lobby.DefaultName, TraceID: "trace-2"},
	}, nil
}

func (m *MockLobbyService) GetStats(ctx context.Context) (*lobby.Stats, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx)
	}
	return &lobby.Stats{
		Connections:  2,
		Players:      1,
		Games:        2,
		GamesByState: map[nim.State]int{nim.StateInLobby: 1, nim.StateInGame: 1},
		Uptime:       "1m0s",
	}, nil
}

func (m *MockLobbyService) GetRules(ctx context.Context) (*nim.Rules, error) {
	if m.GetRulesFunc != nil {
		return m.GetRulesFunc(ctx)
	}
	rules := nim.DefaultRules()
	return &rules, nil
}

func sampleGames() []lobby.GameInfo {
	return []lobby.GameInfo{
		{ID: 1, Player1: "Alice", Player2: "Nobody", State: nim.StateInLobby, Difficulty: nim.Easy, CreatedAt: time.Unix(0, 0)},
		{ID: 2, Player1: "Bob", Player2: "AI", State: nim.StateInGame, Difficulty: nim.Hard, VsAI: true, Marbles: 40, Turn: "slot0"},
	}
}

// Test helpers
func setupTestServer(mockService *MockLobbyService) *Server {
	return NewServer(mockService, nil, "")
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestLobby(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockLobbyService)
		expectedStatus int
		expectedCount  int
		expectedTotal  int
	}{
		{
			name:           "all games",
			path:           "/api/lobby",
			expectedStatus: http.StatusOK,
			expectedCount:  2,
			expectedTotal:  2,
		},
		{
			name:           "filter by state",
			path:           "/api/lobby?state=in-lobby",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			expectedTotal:  1,
		},
		{
			name:           "limit",
			path:           "/api/lobby?limit=1",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			expectedTotal:  2,
		},
		{
			name:           "invalid limit ignored",
			path:           "/api/lobby?limit=abc",
			expectedStatus: http.StatusOK,
			expectedCount:  2,
			expectedTotal:  2,
		},
		{
			name: "service unavailable",
			path: "/api/lobby",
			setupMock: func(m *MockLobbyService) {
				m.ListGamesFunc = func(ctx context.Context) ([]lobby.GameInfo, error) {
					return nil, errors.New("hub stopped")
				}
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockLobbyService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := doRequest(setupTestServer(mockService), "GET", tt.path)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}

			var resp struct {
				Count int              `json:"count"`
				Total int              `json:"total"`
				Games []lobby.GameInfo `json:"games"`
			}
			parseResponse(t, w, &resp)
			if resp.Count != tt.expectedCount || len(resp.Games) != tt.expectedCount {
				t.Errorf("Expected %d games, got count=%d len=%d", tt.expectedCount, resp.Count, len(resp.Games))
			}
			if resp.Total != tt.expectedTotal {
				t.Errorf("Expected total %d, got %d", tt.expectedTotal, resp.Total)
			}
		})
	}
}

func TestGetGame(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockLobbyService)
		expectedStatus int
	}{
		{"found", "/api/games/2", nil, http.StatusOK},
		{"not found", "/api/games/9", nil, http.StatusNotFound},
		{"not a number", "/api/games/abc", nil, http.StatusBadRequest},
		{"zero", "/api/games/0", nil, http.StatusBadRequest},
		{
			"service error",
			"/api/games/1",
			func(m *MockLobbyService) {
				m.GetGameFunc = func(ctx context.Context, id uint64) (*lobby.GameInfo, error) {
					return nil, context.DeadlineExceeded
				}
			},
			http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockLobbyService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := doRequest(setupTestServer(mockService), "GET", tt.path)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if w.Code == http.StatusOK {
				var game lobby.GameInfo
				parseResponse(t, w, &game)
				if game.ID != 2 || !game.VsAI || game.Marbles != 40 {
					t.Errorf("Unexpected game %+v", game)
				}
			} else {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] == "" {
					t.Error("Expected error message")
				}
			}
		})
	}
}

func TestListPlayers(t *testing.T) {
	w := doRequest(setupTestServer(&MockLobbyService{}), "GET", "/api/players")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Count   int                `json:"count"`
		Players []lobby.PlayerInfo `json:"players"`
	}
	parseResponse(t, w, &resp)
	if resp.Count != 2 || resp.Players[0].TraceID != "trace-1" {
		t.Errorf("Unexpected players %+v", resp)
	}
}

func TestStats(t *testing.T) {
	w := doRequest(setupTestServer(&MockLobbyService{}), "GET", "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats lobby.Stats
	parseResponse(t, w, &stats)
	if stats.Connections != 2 || stats.GamesByState[nim.StateInGame] != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestRules(t *testing.T) {
	w := doRequest(setupTestServer(&MockLobbyService{}), "GET", "/api/rules")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Easy    nim.Range `json:"easy"`
		Hard    nim.Range `json:"hard"`
		Targets []int     `json:"targets"`
	}
	parseResponse(t, w, &resp)
	if resp.Easy != (nim.Range{Min: 2, Max: 20}) || resp.Hard.Max != 100 {
		t.Errorf("Unexpected ranges %+v %+v", resp.Easy, resp.Hard)
	}
	want := []int{1, 3, 7, 15, 31, 63}
	if len(resp.Targets) != len(want) {
		t.Fatalf("Expected targets %v, got %v", want, resp.Targets)
	}
	for i := range want {
		if resp.Targets[i] != want[i] {
			t.Errorf("Expected targets %v, got %v", want, resp.Targets)
			break
		}
	}
}

func TestHealth(t *testing.T) {
	w := doRequest(setupTestServer(&MockLobbyService{}), "GET", "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := doRequest(setupTestServer(&MockLobbyService{}), "POST", "/api/lobby")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestWebSocketRoute(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		w := doRequest(setupTestServer(&MockLobbyService{}), "GET", "/ws")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})

	t.Run("delegated", func(t *testing.T) {
		called := false
		ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusSwitchingProtocols)
		})
		s := NewServer(&MockLobbyService{}, ws, "")

		doRequest(s, "GET", "/ws")
		if !called {
			t.Error("Expected websocket handler to be called")
		}
	})
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Nim</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewServer(&MockLobbyService{}, nil, dir)

	w := doRequest(s, "GET", "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Nim") {
		t.Errorf("Expected index page, got %d: %s", w.Code, w.Body.String())
	}

	// API routes take precedence over the file server.
	if w := doRequest(s, "GET", "/api/stats"); w.Code != http.StatusOK {
		t.Errorf("Expected API route, got %d", w.Code)
	}
}
