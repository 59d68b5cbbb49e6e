package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Clients(%s) = %d, want %d", userID, h.Clients(userID), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastOnlyToUser(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")
	waitClients(t, hub, "alice", 1)
	waitClients(t, hub, "bob", 1)

	hub.Broadcast(events.SyncNotice{UserID: "alice", Status: events.SyncOK, BetsInserted: 2})

	var got events.SyncNotice
	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := alice.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Status != events.SyncOK || got.BetsInserted != 2 {
		t.Errorf("notice = %+v, want SYNCED/2", got)
	}

	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := bob.ReadJSON(&got); err == nil {
		t.Error("bob received a notice addressed to alice")
	}
}

func TestHub_PingAndDisconnect(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv, "carol")
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var pong map[string]string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong = %v, %v", pong, err)
	}

	_ = conn.Close()
	waitClients(t, hub, "carol", 0)
}

func TestHub_RequiresUserID(t *testing.T) {
	hub := NewHub(nil)
	rec := httptest.NewRecorder()
	hub.HandleWS(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHub_StalledClientIsDropped(t *testing.T) {
	old := writeWait
	writeWait = 100 * time.Millisecond
	defer func() { writeWait = old }()

	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	// cliente que nunca lê: os buffers TCP enchem e a escrita esbarra no prazo
	_ = dial(t, srv, "dave")
	waitClients(t, hub, "dave", 1)

	big := events.SyncNotice{UserID: "dave", Status: events.SyncFailed, Reason: strings.Repeat("x", 1<<20)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 256 && hub.Clients("dave") > 0; i++ {
			hub.Broadcast(big)
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Broadcast blocked on a client that stopped reading")
	}
	waitClients(t, hub, "dave", 0)
}
