package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/nim"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Nim Lobby",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Nim Lobby - MCP Interface

This is a read-only operator view of a running Nim lobby server. It proxies
every request to the server's REST API. Players play over the websocket; these
tools never change lobby state.

AVAILABLE TOOLS:
- list_games: Lobby snapshot, optionally filtered by state
- get_game: Details of one game (pool, turn, difficulty, opponent)
- list_players: Connected clients with their trace ids and current game
- server_stats: Connection and game counters, uptime
- game_rules: The rules of the game and the configured pool ranges`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Lobby
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List games in the lobby",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"state": map[string]interface{}{
					"type":        "string",
					"description": "Only games in this state (in-lobby, in-game, game-over)",
					"enum":        []string{string(nim.StateInLobby), string(nim.StateInGame), string(nim.StateGameOver)},
				},
			},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get details of a specific game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "number",
					"description": "Game ID to retrieve",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_players",
		Description: "List connected clients",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPlayers)

	// Server
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get connection and game counters",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Explain the rules, the AI strategy and the configured pool ranges",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool arguments, or an empty map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// Tool handlers

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, _ := arguments(request)["state"].(string)

	path := "/api/lobby"
	if state != "" {
		path += "?state=" + url.QueryEscape(state)
	}

	var response struct {
		Count int              `json:"count"`
		Games []lobby.GameInfo `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGames(response.Games)), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := arguments(request)["game_id"].(float64)
	if !ok || id < 1 || id != float64(uint64(id)) {
		return mcp.NewToolResultError("game_id must be a positive integer"), nil
	}

	var game lobby.GameInfo
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/games/%d", uint64(id)), nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGame(&game)), nil
}

func (c *Client) handleListPlayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                `json:"count"`
		Players []lobby.PlayerInfo `json:"players"`
	}
	if err := c.apiCall(ctx, "GET", "/api/players", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connected Clients (%d):\n\n", response.Count)
	for _, p := range response.Players {
		status := "in lobby"
		switch {
		case !p.Joined:
			status = "not joined"
		case p.GameID != 0:
			status = fmt.Sprintf("in game %d", p.GameID)
		}
		fmt.Fprintf(&b, "- #%d %s (%s, trace %s, since %s)\n",
			p.ID, p.Name, status, p.TraceID, p.ConnectedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats lobby.Stats
	if err := c.apiCall(ctx, "GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Uptime: %s\n", stats.Uptime)
	fmt.Fprintf(&b, "Connections: %d (%d joined the lobby)\n", stats.Connections, stats.Players)
	fmt.Fprintf(&b, "Games: %d\n", stats.Games)

	states := make([]string, 0, len(stats.GamesByState))
	for s := range stats.GamesByState {
		states = append(states, string(s))
	}
	sort.Strings(states)
	for _, s := range states {
		fmt.Fprintf(&b, "  %s: %d\n", s, stats.GamesByState[nim.State(s)])
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rules struct {
		Easy    nim.Range `json:"easy"`
		Hard    nim.Range `json:"hard"`
		Targets []int     `json:"targets"`
	}
	if err := c.apiCall(ctx, "GET", "/api/rules", nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	targets := make([]string, len(rules.Targets))
	for i, t := range rules.Targets {
		targets[i] = fmt.Sprint(t)
	}

	text := fmt.Sprintf(`Nim Lobby - Rules

SETUP:
A game starts with a pool of marbles drawn at random from the difficulty range
and a random player to move first.
- easy: %d to %d marbles
- hard: %d to %d marbles

TURNS:
Players alternate. On your turn remove at least 1 marble and at most half the
pool, rounded down. With a single marble left you must take it.

WINNING:
Whoever takes the last marble loses.

AI OPPONENT:
The AI tries to leave a pool of one less than a power of two (%s).
When none of those is reachable it removes a random legal amount.
`, rules.Easy.Min, rules.Easy.Max, rules.Hard.Min, rules.Hard.Max, strings.Join(targets, ", "))

	return mcp.NewToolResultText(text), nil
}

// Formatting helpers

func formatGames(games []lobby.GameInfo) string {
	if len(games) == 0 {
		return "The lobby is empty."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Games (%d):\n\n", len(games))
	for _, g := range games {
		fmt.Fprintf(&b, "- #%d %s vs %s [%s, %s]\n", g.ID, g.Player1, g.Player2, g.State, g.Difficulty)
	}
	return b.String()
}

func formatGame(g *lobby.GameInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game #%d\n", g.ID)
	fmt.Fprintf(&b, "Players: %s vs %s\n", g.Player1, g.Player2)
	fmt.Fprintf(&b, "State: %s\n", g.State)
	fmt.Fprintf(&b, "Difficulty: %s\n", g.Difficulty)

	if g.State == nim.StateInGame {
		fmt.Fprintf(&b, "Marbles: %d (max take %d)\n", g.Marbles, nim.MaxTake(g.Marbles))
		fmt.Fprintf(&b, "Turn: %s\n", turnName(g))
	}
	if !g.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created: %s\n", g.CreatedAt.Format(time.RFC3339))
	}
	return b.String()
}

func turnName(g *lobby.GameInfo) string {
	switch g.Turn {
	case nim.Slot0.String():
		return g.Player1
	case nim.Slot1.String():
		return g.Player2
	default:
		return "nobody"
	}
}
