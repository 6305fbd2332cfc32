// Command nim-lobby starts the Nim lobby server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the lobby WebSocket, a read-only REST API, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server against a running lobby, or against an internal one if none is reachable
//
// Flags control host/port, debug logging, and optional ngrok tunneling for
// easy external access during development. Game tuning is read from NIM_*
// environment variables, optionally from a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/nim-lobby/api"
	"github.com/wricardo/nim-lobby/game/config"
	"github.com/wricardo/nim-lobby/game/service"
	"github.com/wricardo/nim-lobby/transport/mcp"
	"github.com/wricardo/nim-lobby/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Nim Lobby Server"
)

const defaultAPIURL = "http://localhost:8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	serve := &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run the HTTP server with WebSocket, REST API, and MCP endpoint",
		Action:  runServe,
	}

	stdioMCP := &cli.Command{
		Name:    "stdio-mcp",
		Aliases: []string{"mcp-stdio", "mcp"},
		Usage:   "Run an MCP stdio server against a lobby",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   defaultAPIURL,
				Usage:   "Base URL of a running lobby server",
				Sources: cli.EnvVars("NIM_API_URL"),
			},
		},
		Action: runStdioMCP,
	}

	return &cli.Command{
		Name:    "nim-lobby",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before:   setup,
		Commands: []*cli.Command{serve, stdioMCP},
		Action:   runServe,
	}
}

// setup loads .env and configures logging before any command runs
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	return ctx, nil
}

// lobbyStack is one running lobby: the hub loop plus its HTTP surface
type lobbyStack struct {
	hub     *websocket.Hub
	handler http.Handler
}

// startLobby builds the lobby and starts its event loop. The loop stops when
// ctx is cancelled.
func startLobby(ctx context.Context, settings *config.Settings, logger *log.Logger) *lobbyStack {
	hub := websocket.NewHub()
	hub.SetLogger(logger)

	coord := service.NewCoordinator(hub, settings, logger)
	lobbyService := service.NewLobbyService(coord, hub)
	go hub.Run(ctx, coord)

	return &lobbyStack{
		hub:     hub,
		handler: api.NewServer(lobbyService, http.HandlerFunc(hub.ServeWS), settings.StaticDir),
	}
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runServe starts the HTTP server and, if enabled, an ngrok tunnel. It
// returns after ctx is cancelled and everything has shut down.
func runServe(ctx context.Context, cmd *cli.Command) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	log.Printf("Starting %s v%s on %s", AppName, Version, addr)
	log.Printf("Heartbeat every %s (timeout %s), AI delay %s, pools easy %d-%d hard %d-%d",
		settings.HeartbeatInterval, settings.HeartbeatTimeout, settings.AIDelay,
		settings.EasyMin, settings.EasyMax, settings.HardMin, settings.HardMax)

	lobbyCtx, stopLobby := context.WithCancel(context.Background())
	defer stopLobby()
	stack := startLobby(lobbyCtx, settings, log.Default())

	// MCP tools call back into this server's REST API
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", stack.handler)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	// No WriteTimeout: websocket connections are long-lived.
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("Lobby: http://%s/", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("REST API: http://%s/api/lobby", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), mainRouter)
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-serverErr:
		stopLobby()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	stopLobby()
	<-stack.hub.Done()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runNgrok exposes handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  Lobby (ngrok): %s/", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// lobbyReachable reports whether a lobby server answers at baseURL
func lobbyReachable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It uses the lobby at --api-url when
// reachable; otherwise it starts an internal lobby on a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api-url")
	log.Printf("Checking for lobby server at %s...", baseURL)

	if lobbyReachable(baseURL) {
		log.Printf("Lobby server found at %s, using it for MCP", baseURL)
	} else {
		log.Printf("No lobby server found, starting internal HTTP server")

		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		stack := startLobby(ctx, settings, log.Default())
		httpServer := &http.Server{Handler: stack.handler}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		log.Printf("Internal lobby listening on %s", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
