package ui

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liveinsight/companion/internal/hotkey"
)

func dialTest(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(NewHandler(hub))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return ev
}

// waitClients blocks until the hub has n clients registered.
func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastAndReplay(t *testing.T) {
	hub := NewHub(func(hotkey.Command, string) {})
	conn, done := dialTest(t, hub)
	defer done()
	waitClients(t, hub, 1)

	// Connect replay always includes the hidden flag.
	if ev := readEvent(t, conn); ev.Type != EventHidden || ev.Hidden {
		t.Fatalf("replay event = %+v", ev)
	}

	hub.Status("Listening...")
	if ev := readEvent(t, conn); ev.Type != EventStatus || ev.Text != "Listening..." {
		t.Errorf("status event = %+v", ev)
	}

	hub.Answer(1, "what is go", "a programming language")
	if ev := readEvent(t, conn); ev.Type != EventAnswer || ev.Seq != 1 || ev.Question != "what is go" {
		t.Errorf("answer event = %+v", ev)
	}

	hub.Credits(3, 1)
	if ev := readEvent(t, conn); ev.Type != EventCredits || ev.Credits != 3 || ev.UntilNext != 1 {
		t.Errorf("credits event = %+v", ev)
	}
}

func TestReconnectCatchesUp(t *testing.T) {
	hub := NewHub(func(hotkey.Command, string) {})
	hub.Status("Idle")
	hub.Answer(1, "q1", "a1")
	hub.Answer(2, "q2", "a2")

	conn, done := dialTest(t, hub)
	defer done()

	var types []string
	var answers int
	for range 4 {
		ev := readEvent(t, conn)
		types = append(types, ev.Type)
		if ev.Type == EventAnswer {
			answers++
		}
	}
	if answers != 2 {
		t.Errorf("replayed answers = %d, want 2 (events: %v)", answers, types)
	}
}

func TestAnswerReplayKeepsRecentTail(t *testing.T) {
	hub := NewHub(func(hotkey.Command, string) {})
	for i := 1; i <= maxReplayAnswers+10; i++ {
		hub.Answer(uint64(i), "q", "a")
	}

	conn, done := dialTest(t, hub)
	defer done()

	if ev := readEvent(t, conn); ev.Type != EventHidden {
		t.Fatalf("first replay event = %+v", ev)
	}
	var firstSeq, lastSeq uint64
	for i := range maxReplayAnswers {
		ev := readEvent(t, conn)
		if ev.Type != EventAnswer {
			t.Fatalf("replay event %d = %+v, want answer", i, ev)
		}
		if i == 0 {
			firstSeq = ev.Seq
		}
		lastSeq = ev.Seq
	}
	if firstSeq != 11 || lastSeq != maxReplayAnswers+10 {
		t.Errorf("replayed seq range = [%d, %d], want [11, %d]", firstSeq, lastSeq, maxReplayAnswers+10)
	}
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Errorf("unexpected extra replay event: %s", data)
	}
}

func TestClearAnswersEmptiesReplay(t *testing.T) {
	hub := NewHub(func(hotkey.Command, string) {})
	hub.Answer(1, "q", "a")
	hub.ClearAnswers()

	conn, done := dialTest(t, hub)
	defer done()

	// Only the hidden flag should be replayed.
	if ev := readEvent(t, conn); ev.Type != EventHidden {
		t.Errorf("first replay event = %+v", ev)
	}
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Errorf("unexpected extra replay event: %s", data)
	}
}

func TestCommandDispatch(t *testing.T) {
	var mu sync.Mutex
	var got []hotkey.Command
	var path string
	hub := NewHub(func(c hotkey.Command, p string) {
		mu.Lock()
		got = append(got, c)
		if p != "" {
			path = p
		}
		mu.Unlock()
	})
	conn, done := dialTest(t, hub)
	defer done()
	waitClients(t, hub, 1)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"command": "toggle-listen"}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"command": "upload-resume", "path": "/tmp/resume.txt"}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"command": "bogus"}`))

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Give the unknown command time to be (wrongly) dispatched.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("dispatched = %v, want exactly 2 commands", got)
	}
	if got[0] != hotkey.CmdToggleListen || got[1] != hotkey.CmdUploadResume {
		t.Errorf("commands = %v", got)
	}
	if path != "/tmp/resume.txt" {
		t.Errorf("path = %q", path)
	}
}
