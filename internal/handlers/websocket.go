package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"blackjack-table-go/internal/auth"
	"blackjack-table-go/internal/config"
	"blackjack-table-go/internal/session"
	ws "blackjack-table-go/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			// Non-browser clients (no Origin) are allowed.
			return true
		}
		if cfgDevAllowAll() {
			return true
		}
		if cfgIsDev() {
			return isLocalhostOrigin(origin) || isAllowedOrigin(origin)
		}
		return isAllowedOrigin(origin)
	},
}

// set by config at startup
var originMu sync.RWMutex
var allowedOrigins = map[string]bool{}
var devMode = false
var devAllowAll = false

func SetWebSocketOriginPolicy(isDev bool, allowAllDev bool, origins []string) {
	originMu.Lock()
	defer originMu.Unlock()
	devMode = isDev
	devAllowAll = allowAllDev
	allowedOrigins = map[string]bool{}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			allowedOrigins[o] = true
		}
	}
}

func cfgIsDev() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode
}
func cfgDevAllowAll() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode && devAllowAll
}
func isAllowedOrigin(origin string) bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return allowedOrigins[origin]
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// WebSocketHandler upgrades the connection and registers the client in a
// spectator room. Rooms are named "table:<id>"; clients receive
// table_update messages whenever a round operation lands on that table.
func WebSocketHandler(hubProvider func() (*ws.Hub, bool), store *session.Store, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := wsToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseAndValidateToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// Preconditions before attempting the upgrade so we can return HTTP errors normally.
		room := strings.TrimSpace(c.Query("room"))
		if room == "" {
			room = "lobby:global"
		}
		if id, ok := strings.CutPrefix(room, "table:"); ok {
			if _, found := store.Lookup(id); !found {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "table not found"})
				return
			}
		}
		hub, ok := hubProvider()
		if !ok || hub == nil {
			log.Printf("WebSocketHandler hubProvider returned nil: user_id=%d room=%q", claims.UserID, room)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocketHandler upgrade failed: method=%s path=%s remote=%s origin=%q err=%v",
				c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Request.Header.Get("Origin"), err,
			)
			return
		}

		client := ws.NewClient(conn, hub, room, claims.UserID)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump(func(msg []byte) {
			handleWSMessage(hub, client, store, msg)
		})

		// Send a direct "connected" ack.
		_ = sendDirect(client, "connected", map[string]any{
			"user_id": client.UserID,
			"room":    room,
		})
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// handleWSMessage routes inbound client messages. Round actions stay
// HTTP-only (they need owner auth and per-table serialization); the
// socket is for room membership and receiving snapshots.
func handleWSMessage(hub *ws.Hub, client *ws.Client, store *session.Store, msg []byte) {
	var in inboundMessage
	if err := json.Unmarshal(msg, &in); err != nil {
		_ = sendDirect(client, "error", map[string]any{"error": "invalid json"})
		return
	}

	switch in.Type {
	case "join_room":
		var p struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || strings.TrimSpace(p.Room) == "" {
			_ = sendDirect(client, "error", map[string]any{"error": "invalid room"})
			return
		}
		room := strings.TrimSpace(p.Room)
		if id, ok := strings.CutPrefix(room, "table:"); ok {
			if _, found := store.Lookup(id); !found {
				_ = sendDirect(client, "error", map[string]any{"error": "table not found"})
				return
			}
		}
		hub.Join(client, room)
		_ = sendDirect(client, "joined_room", map[string]any{"room": room})
	case "get_state":
		id, ok := strings.CutPrefix(client.Room, "table:")
		if !ok {
			_ = sendDirect(client, "error", map[string]any{"error": "not in a table room"})
			return
		}
		tbl, found := store.Lookup(id)
		if !found {
			_ = sendDirect(client, "error", map[string]any{"error": "table not found"})
			return
		}
		r, unlock := tbl.Acquire()
		view := buildRoundView(tbl.ID, r)
		unlock()
		_ = sendDirect(client, "table_update", view)
	default:
		_ = sendDirect(client, "error", map[string]any{"error": "unknown message type"})
	}
}

func sendDirect(c *ws.Client, typ string, payload any) error {
	msg := map[string]any{
		"type":      typ,
		"payload":   payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.Send <- b:
	default:
		log.Printf("ws send drop: user_id=%d room=%s type=%s", c.UserID, c.Room, typ)
	}
	return nil
}

// wsToken resolves auth for the upgrade request. Browser sockets carry
// the session cookie automatically; non-browser clients use Bearer.
func wsToken(c *gin.Context) string {
	if v, err := c.Cookie(auth.AuthCookieName); err == nil {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	authz := c.GetHeader("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
