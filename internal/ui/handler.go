package ui

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/liveinsight/companion/internal/hotkey"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The server binds loopback only; the overlay is the only caller.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// maxOverlays bounds connected overlay clients.
const maxOverlays = 4

// Handler upgrades overlay connections and pumps their commands into
// the hub's dispatch.
type Handler struct {
	hub *Hub
	sem chan struct{}
}

// NewHandler wraps a hub with admission control.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub, sem: make(chan struct{}, maxOverlays)}
}

// command is one inbound overlay frame.
type command struct {
	Command string `json:"command"`
	Path    string `json:"path,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		http.Error(w, "too many overlay connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("overlay upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	h.hub.add(c)
	defer h.hub.remove(c)

	slog.Info("overlay connected", "remote", r.RemoteAddr)
	h.readCommands(conn)
	slog.Info("overlay disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) handleCommand(raw []byte) {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		slog.Warn("bad overlay frame", "error", err)
		return
	}
	parsed, ok := hotkey.Parse(cmd.Command)
	if !ok {
		slog.Warn("unknown overlay command", "command", cmd.Command)
		return
	}
	h.dispatch(parsed, cmd.Path)
}

func (h *Handler) readCommands(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.hub.handleCommand(data)
	}
}
