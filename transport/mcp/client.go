package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/config"
	"github.com/wricardo/fps-arena-relay/game/protocol"
	"github.com/wricardo/fps-arena-relay/game/room"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL, version string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer(version)
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Arena Duel Relay",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Arena Duel Relay - MCP Interface

Read-only view of a two-player duel server. Players connect over WebSocket;
these tools let you watch rooms, not play in them.

AVAILABLE TOOLS:
- server_health: Server status and live counters
- list_rooms: All live rooms with state and occupants
- get_room: One room in detail (positions, health, host)
- arena_rules: Spawn tables and max health used for new rooms
- list_configs: Arena files available on the server
- protocol_reference: WebSocket message reference for game clients`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_health",
		Description: "Get server status, version and room/player/connection counters",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerHealth)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all live duel rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get details of a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "4-digit room code",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "arena_rules",
		Description: "Get the arena rules new rooms are created with",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleArenaRules)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List arena configuration files available on the server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "protocol_reference",
		Description: "Get the WebSocket message reference for game clients",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleProtocolReference)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC requests over POST.
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		if _, err := w.Write(responseData); err != nil {
			log.Debug().Err(err).Msg("Failed to write MCP response")
		}
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
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

func stringArg(request mcp.CallToolRequest, name string) string {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

// Tool handlers

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Rooms       int    `json:"rooms"`
	Players     int    `json:"players"`
	InProgress  int    `json:"in_progress"`
	Connections int    `json:"connections"`
}

func (c *Client) handleServerHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var health healthResponse
	if err := c.apiCall(ctx, "GET", "/api/health", nil, &health); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Status: %s (version %s)\nRooms: %d (%d in progress)\nPlayers: %d\nConnections: %d\n",
		health.Status, health.Version, health.Rooms, health.InProgress, health.Players, health.Connections)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int         `json:"count"`
		Rooms []room.Info `json:"rooms"`
	}
	if err := c.apiCall(ctx, "GET", "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Live Rooms (%d):\n\n", response.Count)
	for _, r := range response.Rooms {
		names := make([]string, 0, len(r.Players))
		for _, p := range r.Players {
			names = append(names, fmt.Sprintf("%s [%s]", displayName(p.Name), p.Team))
		}
		fmt.Fprintf(&b, "- %s %s %d/%d, created %s: %s\n",
			r.ID, r.State, len(r.Players), r.MaxPlayers, r.CreatedAt.Format("15:04:05"), strings.Join(names, " vs "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := stringArg(request, "room_id")
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var info room.Info
	if err := c.apiCall(ctx, "GET", "/api/rooms/"+roomID, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRoom(&info)), nil
}

func (c *Client) handleArenaRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rules room.Rules
	if err := c.apiCall(ctx, "GET", "/api/rules", nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRules(&rules)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []config.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(configs) == 0 {
		return mcp.NewToolResultText("No arena files found; the built-in arena is in use.\n"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Arena Configs (%d):\n\n", len(configs))
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s (health %d, %d respawn points)\n",
			cfg.ConfigID, cfg.Name, cfg.MaxHealth, cfg.RespawnPoints)
		if cfg.Description != "" {
			fmt.Fprintf(&b, "  %s\n", cfg.Description)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleProtocolReference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(protocolReference), nil
}

const protocolReference = `Arena Duel Relay - WebSocket Protocol

Connect to /ws. Every frame is one JSON object with a "type" field.

CLIENT -> SERVER:
- createRoom {playerName, team?}        open a room; you become host
- joinRoom {roomId, playerName, team?}  enter a room by its 4-digit code
- ready                                 advisory ready flag
- startGame                             host only, needs two players
- updatePosition {position, rotation}   only after the game started
- shoot {position, direction}
- hit {targetId, damage, isHeadshot}
- respawn

SERVER -> CLIENT:
- roomCreated / roomJoined {roomId, playerId, team}
- playerJoined {player{id,name,team}}
- playerReady {playerId}
- gameStart {players[{id,name,position}]}
- playerUpdate {playerId, position, rotation}
- playerShoot {playerId, position, direction}
- takeDamage {damage, fromId, isHeadshot}   to the victim only
- playerHit {playerId, health, isHeadshot}  to everyone else
- playerKilled {killerId, victimId, isHeadshot}
- respawn {position} / playerRespawn {playerId, position}
- playerLeft {playerId}
- error {kind, message}

ERROR KINDS:
roomNotFound, roomFull, unauthorized, notEnoughPlayers, alreadyStarted,
alreadyInRoom, unavailable
`

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

func formatVec(v protocol.Vec3) string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}

func formatRoom(info *room.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s\n", info.ID)
	fmt.Fprintf(&b, "State: %s\n", info.State)
	fmt.Fprintf(&b, "Players: %d/%d\n", len(info.Players), info.MaxPlayers)
	fmt.Fprintf(&b, "Created: %s\n", info.CreatedAt.Format(time.RFC3339))

	for _, p := range info.Players {
		b.WriteString("\n")
		host := ""
		if p.IsHost {
			host = " (host)"
		}
		fmt.Fprintf(&b, "%s [%s]%s\n", displayName(p.Name), p.Team, host)
		fmt.Fprintf(&b, "  ID: %s\n", p.ID)
		status := "alive"
		if p.Dead {
			status = "dead"
		}
		fmt.Fprintf(&b, "  Health: %d (%s)\n", p.Health, status)
		fmt.Fprintf(&b, "  Position: %s\n", formatVec(p.Position))
		if p.Ready {
			b.WriteString("  Ready\n")
		}
	}
	return b.String()
}

func formatRules(rules *room.Rules) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Arena: %s\n", rules.Name)
	if rules.Description != "" {
		fmt.Fprintf(&b, "%s\n", rules.Description)
	}
	fmt.Fprintf(&b, "Max health: %d\n", rules.MaxHealth)
	fmt.Fprintf(&b, "Join position: %s\n", formatVec(rules.JoinPosition))

	b.WriteString("Start spawns:\n")
	for i, p := range rules.StartSpawns {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, formatVec(p))
	}
	b.WriteString("Respawn points:\n")
	for i, p := range rules.RespawnPoints {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, formatVec(p))
	}
	return b.String()
}
