package realtime

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// TokenValidator checks the access token a websocket client presents. The
// browser websocket API cannot set an Authorization header, so the token
// arrives as a query parameter.
type TokenValidator interface {
	UserIDFromToken(token string) (string, error)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Tables clients may subscribe to over the socket.
var subscribableTables = map[string]bool{
	"gw_notifications":      true,
	"gw_tasks":              true,
	"gw_module_permissions": true,
	"gw_modules":            true,
}

// WebSocketHandler upgrades clients and forwards their subscribed change
// events until the connection drops.
type WebSocketHandler struct {
	upgrader  websocket.Upgrader
	manager   *Manager
	validator TokenValidator
	logger    *slog.Logger
}

func NewWebSocketHandler(manager *Manager, validator TokenValidator, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				logger.Warn("websocket rejected: origin not allowed", "origin", origin)
				return false
			},
		},
		manager:   manager,
		validator: validator,
		logger:    logger,
	}
}

// Serve handles GET /ws?token=…&tables=gw_notifications,gw_tasks.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.validator.UserIDFromToken(token)
	if err != nil {
		h.logger.Warn("websocket rejected: invalid token", "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	tables := parseTables(r.URL.Query().Get("tables"))
	if len(tables) == 0 {
		http.Error(w, "no subscribable tables requested", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	subs := make([]*Subscription, 0, len(tables))
	defer func() {
		for _, s := range subs {
			h.manager.Unsubscribe(s)
		}
		_ = conn.Close()
	}()

	merged := make(chan ChangeEvent, 32)
	for _, table := range tables {
		sub, err := h.manager.Subscribe(r.Context(), table, userID)
		if err != nil {
			// Establishment failure leaves the client on fetch-only; the
			// other tables still stream.
			continue
		}
		subs = append(subs, sub)
		go func(s *Subscription) {
			for ev := range s.Events {
				select {
				case merged <- ev:
				default:
				}
			}
		}(sub)
	}

	h.logger.Info("websocket client connected", "user_id", userID, "tables", tables)

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, merged, done)
}

func (h *WebSocketHandler) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, merged <-chan ChangeEvent, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-merged:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func parseTables(raw string) []string {
	var tables []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" && subscribableTables[t] {
			tables = append(tables, t)
		}
	}
	return tables
}
