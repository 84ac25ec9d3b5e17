// Command fps-arena-relay runs the two-player arena duel relay.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the WebSocket duel
//     endpoint, the read-only REST API, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP server if
//     none is reachable at the configured address
//
// Every flag can also be set through the environment or a .env file; flags
// win when both are given. Ngrok tunneling is available for playtesting
// across networks.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/fps-arena-relay/api"
	"github.com/wricardo/fps-arena-relay/game/config"
	"github.com/wricardo/fps-arena-relay/game/registry"
	"github.com/wricardo/fps-arena-relay/game/service"
	"github.com/wricardo/fps-arena-relay/transport/mcp"
	"github.com/wricardo/fps-arena-relay/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Arena Duel Relay"
)

func main() {
	loadDotEnv()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Exiting")
	}
}

// newApp builds the command tree. Flags are declared once on the root and
// inherited by the subcommands.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "fps-arena-relay",
		Usage:   AppName + " server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 3000, Usage: "HTTP server port (env PORT)"},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host (env HOST)"},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing arena configurations (env CONFIG_DIR)"},
			&cli.StringFlag{Name: "arena", Usage: "arena config used for new rooms (env ARENA_CONFIG)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging (env DEBUG)"},
			&cli.StringFlag{Name: "log-format", Value: "console", Usage: "console or json (env LOG_FORMAT)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel (env NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token (env NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (env NGROK_DOMAIN)"},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "run the HTTP server with WebSocket, REST API and MCP endpoint",
				Action:  serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server against a running or internal HTTP server",
				Action:  mcpAction,
			},
		},
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	setupLogging(settings, os.Stdout)
	log.Info().Str("version", Version).Str("mode", "serve").Msgf("Starting %s", AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runHTTPServer(ctx, settings)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	// stdout belongs to the MCP protocol
	setupLogging(settings, os.Stderr)
	log.Info().Str("version", Version).Str("mode", "mcp").Msgf("Starting %s", AppName)

	return runStdioMCP(ctx, settings)
}

// arena holds the wired relay components.
type arena struct {
	configs    *config.Manager
	hub        *websocket.Hub
	rooms      *registry.Manager
	dispatcher *service.Dispatcher
	api        *api.Server
}

// newArena wires config, transport, registry and API for the given settings.
// baseURL is where the /mcp endpoint sends its REST calls.
func newArena(s Settings, baseURL string) (*arena, error) {
	configs, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	rules, err := configs.Resolve(s.ArenaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load arena %q: %w", s.ArenaConfig, err)
	}
	log.Info().
		Str("arena", rules.Name).
		Int("max_health", rules.MaxHealth).
		Int("respawn_points", len(rules.RespawnPoints)).
		Msg("Arena rules loaded")

	hub := websocket.NewHub()
	rooms := registry.New(hub, rules)
	dispatcher := service.NewDispatcher(rooms, hub)
	hub.SetHandler(dispatcher)

	apiServer := api.NewServer(
		service.NewArenaService(rooms, hub),
		http.HandlerFunc(hub.ServeWS),
		api.WithConfigs(configs),
		api.WithVersion(Version),
	)
	apiServer.Mount("/mcp", mcp.NewClient(baseURL, Version).HTTPHandler())

	return &arena{
		configs:    configs,
		hub:        hub,
		rooms:      rooms,
		dispatcher: dispatcher,
		api:        apiServer,
	}, nil
}

// shutdown closes every connection and room. Safe to call once the HTTP
// server has stopped accepting requests.
func (a *arena) shutdown() {
	a.hub.Close()
	if n := a.rooms.Shutdown(); n > 0 {
		log.Info().Int("rooms", n).Msg("Closed live rooms")
	}
}

// runHTTPServer serves the relay until ctx is cancelled, then shuts down
// gracefully. If ngrok is enabled it also serves through a public tunnel.
func runHTTPServer(ctx context.Context, s Settings) error {
	addr := s.Addr()
	a, err := newArena(s, "http://"+addr)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.api,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("ws", fmt.Sprintf("ws://%s/ws", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if s.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, s, a.api)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down...")
	case err := <-serveErr:
		a.shutdown()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown, so close
	// them through the hub first.
	a.shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("Server stopped")
	return nil
}

// runNgrok exposes handler through an ngrok tunnel until ctx is cancelled.
func runNgrok(ctx context.Context, s Settings, handler http.Handler) {
	if s.NgrokAuthToken == "" {
		log.Warn().Msg("Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Info().Msg("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if s.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.NgrokDomain))
		log.Info().Str("domain", s.NgrokDomain).Msg("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.NgrokAuthToken))
	if err != nil {
		log.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return
	}

	ngrokURL := tun.URL()
	log.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("mcp", ngrokURL+"/mcp").
		Msg("Ngrok tunnel established")

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		if err := tunnelServer.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close ngrok server")
		}
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Ngrok server error")
	}
	log.Info().Msg("Ngrok tunnel closed")
}

// externalServerUp reports whether a relay already answers at baseURL.
func externalServerUp(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses a relay at the configured
// address when one is up; otherwise it starts an internal one on a random
// loopback port and targets that.
func runStdioMCP(ctx context.Context, s Settings) error {
	baseURL := "http://" + s.Addr()
	log.Info().Str("url", baseURL).Msg("Checking for external API server")

	if externalServerUp(baseURL) {
		log.Info().Str("url", baseURL).Msg("External API server found, using it for MCP")
	} else {
		log.Info().Msg("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		a, err := newArena(s, baseURL)
		if err != nil {
			listener.Close()
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer a.shutdown()

		httpServer := &http.Server{Handler: a.api, ReadHeaderTimeout: 15 * time.Second}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.Info().Str("url", baseURL).Msg("Internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL, Version)
	log.Info().Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
