package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/nim-lobby/game/config"
	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/service"
)

// echoHandler sends every frame back to its sender
type echoHandler struct {
	next    lobby.ConnID
	conns   map[lobby.ConnID]lobby.Conn
	closed  chan lobby.ConnID
	connect chan lobby.ConnID
}

func newEchoHandler() *echoHandler {
	return &echoHandler{
		conns:   make(map[lobby.ConnID]lobby.Conn),
		closed:  make(chan lobby.ConnID, 8),
		connect: make(chan lobby.ConnID, 8),
	}
}

func (h *echoHandler) Connect(conn lobby.Conn) lobby.ConnID {
	h.next++
	h.conns[h.next] = conn
	h.connect <- h.next
	return h.next
}

func (h *echoHandler) Receive(id lobby.ConnID, data []byte) {
	h.conns[id].Send(data)
}

func (h *echoHandler) Close(id lobby.ConnID) {
	delete(h.conns, id)
	h.closed <- id
}

func quietHub() *Hub {
	hub := NewHub()
	hub.SetLogger(log.New(io.Discard, "", 0))
	return hub
}

func startHub(t *testing.T, handler Handler) (*Hub, *httptest.Server) {
	t.Helper()
	hub := quietHub()
	return hub, serveHub(t, hub, handler)
}

// serveHub runs hub with handler behind a test HTTP server
func serveHub(t *testing.T, hub *Hub, handler Handler) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx, handler)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hub.Done()
	})
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Failed to unmarshal message %s: %v", data, err)
	}
	return m
}

// readUntil skips frames until one with the given event arrives
func readUntil(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		if m := readJSON(t, conn); m["event"] == event {
			return m
		}
	}
	t.Fatalf("No %s message received", event)
	return nil
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register channels are nil")
	}
	if hub.inbound == nil || hub.tasks == nil {
		t.Error("Hub event channels are nil")
	}
}

func TestClientSend(t *testing.T) {
	client := &Client{hub: quietHub(), send: make(chan []byte, 1)}

	if err := client.Send([]byte("one")); err != nil {
		t.Fatalf("Expected first send to be queued, got %v", err)
	}
	if err := client.Send([]byte("two")); !errors.Is(err, ErrSendBufferFull) {
		t.Errorf("Expected ErrSendBufferFull, got %v", err)
	}
	if err := client.Send([]byte("three")); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Expected ErrClientClosed, got %v", err)
	}

	// The queued frame is still delivered before the close.
	if got, ok := <-client.send; !ok || string(got) != "one" {
		t.Errorf("Expected queued frame, got %q", got)
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Expected repeated Close to succeed, got %v", err)
	}
}

func TestHubDo(t *testing.T) {
	hub := quietHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx, newEchoHandler())

	ran := false
	if err := hub.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !ran {
		t.Error("Expected task to run before Do returned")
	}

	cancel()
	<-hub.Done()

	if err := hub.Do(context.Background(), func() {}); !errors.Is(err, ErrHubStopped) {
		t.Errorf("Expected ErrHubStopped, got %v", err)
	}
}

func TestHubDoContextCancelled(t *testing.T) {
	hub := quietHub()

	// No loop is running, so the task is never picked up.
	for i := 0; i < cap(hub.tasks); i++ {
		hub.tasks <- func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := hub.Do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestHubAfterFunc(t *testing.T) {
	hub := quietHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-hub.Done()
	}()
	go hub.Run(ctx, newEchoHandler())

	fired := make(chan struct{})
	hub.AfterFunc(10*time.Millisecond, func() { close(fired) })

	stopped := hub.AfterFunc(time.Hour, func() { t.Error("Stopped timer fired") })
	if !stopped.Stop() {
		t.Error("Expected Stop to cancel a pending timer")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Timer callback did not run")
	}
}

func TestWebSocketEcho(t *testing.T) {
	handler := newEchoHandler()
	_, server := startHub(t, handler)

	conn := dial(t, server)
	id := <-handler.connect

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping-test"}`)); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if got := readJSON(t, conn); got["event"] != "ping-test" {
		t.Errorf("Expected echo, got %v", got)
	}

	conn.Close()
	select {
	case closed := <-handler.closed:
		if closed != id {
			t.Errorf("Expected conn %d closed, got %d", id, closed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Handler was not told about the closed connection")
	}
}

func TestWebSocketServerClose(t *testing.T) {
	handler := newEchoHandler()
	hub, server := startHub(t, handler)

	conn := dial(t, server)
	id := <-handler.connect

	if err := hub.Do(context.Background(), func() { handler.conns[id].Close() }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Errorf("Expected close frame, got %v", err)
	}
}

func TestWebSocketLobbyFlow(t *testing.T) {
	hub := quietHub()
	settings := config.Default()
	settings.EasyMin, settings.EasyMax = 10, 10
	coord := service.NewCoordinator(hub, settings, log.New(io.Discard, "", 0))

	lobbyServer := serveHub(t, hub, coord)

	alice := dial(t, lobbyServer)
	bob := dial(t, lobbyServer)

	send := func(conn *websocket.Conn, frame string) {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
	}

	send(alice, `{"event":"lobby-join","username":"Alice"}`)
	if ack := readUntil(t, alice, "lobby-join"); ack["success"] != true {
		t.Fatalf("Expected Alice to join, got %v", ack)
	}
	send(bob, `{"event":"lobby-join","username":"Bob"}`)
	if ack := readUntil(t, bob, "lobby-join"); ack["success"] != true {
		t.Fatalf("Expected Bob to join, got %v", ack)
	}

	send(alice, `{"event":"game-create","difficulty":"easy","opponentType":"human"}`)
	created := readUntil(t, alice, "game-create")
	gameID := created["gameId"].(float64)

	status := readUntil(t, bob, "game-status-update")
	if status["gameId"] != gameID || status["player1"] != "Alice" {
		t.Fatalf("Expected Bob to see Alice's game, got %v", status)
	}

	send(bob, `{"event":"game-join","id":`+formatID(gameID)+`}`)

	aStart := readUntil(t, alice, "game-start")
	bStart := readUntil(t, bob, "game-start")
	if aStart["marbles"] != float64(10) || bStart["marbles"] != float64(10) {
		t.Errorf("Expected 10 marbles for both, got %v and %v", aStart["marbles"], bStart["marbles"])
	}
	if aStart["yourTurn"] == bStart["yourTurn"] {
		t.Fatalf("Expected exclusive turn flags, got %v and %v", aStart["yourTurn"], bStart["yourTurn"])
	}

	mover, waiter := alice, bob
	if bStart["yourTurn"] == true {
		mover, waiter = bob, alice
	}
	send(mover, `{"event":"play-turn","marbles":3}`)

	update := readUntil(t, waiter, "game-update")
	if update["marbles"] != float64(7) || update["yourTurn"] != true {
		t.Errorf("Expected 7 marbles and the waiter's turn, got %v", update)
	}

	// The mover drops; the waiter is told the game is over.
	mover.Close()
	readUntil(t, waiter, "game-terminate")
	closed := readUntil(t, waiter, "game-status-update")
	for closed["gameClosed"] != true {
		closed = readUntil(t, waiter, "game-status-update")
	}
	if closed["gameId"] != gameID {
		t.Errorf("Expected game %v closed, got %v", gameID, closed)
	}
}

func formatID(id float64) string {
	b, _ := json.Marshal(int64(id))
	return string(b)
}
