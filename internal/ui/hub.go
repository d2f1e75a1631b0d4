package ui

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/liveinsight/companion/internal/hotkey"
)

// maxReplayAnswers bounds the answer backlog kept for reconnect
// replay; an overlay that reconnects mid-interview only needs the
// recent tail.
const maxReplayAnswers = 50

// Dispatch receives overlay commands. path is set for upload-resume.
type Dispatch func(cmd hotkey.Command, path string)

// client is one connected overlay with a serialized writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("write overlay event", "error", err)
	}
}

// Hub implements Surface over every connected overlay. It keeps the
// latest state so an overlay that reconnects is caught up immediately.
type Hub struct {
	dispatch Dispatch

	mu         sync.Mutex
	clients    map[*client]struct{}
	lastStatus Event
	lastCredit Event
	hidden     bool
	answers    []Event
}

// NewHub creates a hub that forwards overlay commands to dispatch.
func NewHub(dispatch Dispatch) *Hub {
	return &Hub{
		dispatch: dispatch,
		clients:  map[*client]struct{}{},
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	replay := make([]Event, 0, len(h.answers)+3)
	if h.lastStatus.Type != "" {
		replay = append(replay, h.lastStatus)
	}
	if h.lastCredit.Type != "" {
		replay = append(replay, h.lastCredit)
	}
	replay = append(replay, Event{Type: EventHidden, Hidden: h.hidden})
	replay = append(replay, h.answers...)
	h.mu.Unlock()

	for _, ev := range replay {
		c.send(ev)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Clients reports how many overlays are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.send(ev)
	}
}

func (h *Hub) Status(text string) {
	ev := Event{Type: EventStatus, Text: text}
	h.mu.Lock()
	h.lastStatus = ev
	h.mu.Unlock()
	h.broadcast(ev)
}

func (h *Hub) Speech(active bool) {
	h.broadcast(Event{Type: EventSpeech, Active: active})
}

func (h *Hub) Answer(seq uint64, question, text string) {
	ev := Event{Type: EventAnswer, Seq: seq, Question: question, Text: text}
	h.mu.Lock()
	h.answers = append(h.answers, ev)
	if len(h.answers) > maxReplayAnswers {
		h.answers = append([]Event(nil), h.answers[len(h.answers)-maxReplayAnswers:]...)
	}
	h.mu.Unlock()
	h.broadcast(ev)
}

func (h *Hub) ClearAnswers() {
	h.mu.Lock()
	h.answers = nil
	h.mu.Unlock()
	h.broadcast(Event{Type: EventClear})
}

func (h *Hub) Credits(balance, untilNext int) {
	ev := Event{Type: EventCredits, Credits: balance, UntilNext: untilNext}
	h.mu.Lock()
	h.lastCredit = ev
	h.mu.Unlock()
	h.broadcast(ev)
}

func (h *Hub) Hidden(hidden bool) {
	h.mu.Lock()
	h.hidden = hidden
	h.mu.Unlock()
	h.broadcast(Event{Type: EventHidden, Hidden: hidden})
}

func (h *Hub) Raise() {
	h.broadcast(Event{Type: EventRaise})
}
