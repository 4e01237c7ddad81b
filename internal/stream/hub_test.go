package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/codevanta/propgate/internal/checks"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	r := chi.NewRouter()
	hub.RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/stream"
	return hub, url
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
}

func TestHubDeliversEvents(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	sent := checks.Event{
		ProposalID: "p-1",
		Check:      checks.TypeSyntax,
		Verdict:    checks.VerdictPassed,
		Step:       1,
		Total:      3,
	}
	hub.CheckCompleted(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got checks.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if got != sent {
		t.Errorf("got %+v, want %+v", got, sent)
	}
}

func TestHubFansOutToAllClients(t *testing.T) {
	hub, url := startHub(t)

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dialing client %d: %v", i, err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}
	waitForClients(t, hub, 3)

	hub.CheckCompleted(checks.Event{ProposalID: "p-2", Check: checks.TypeLint, Verdict: checks.VerdictFailed, Step: 2, Total: 2})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got checks.Event
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		if got.ProposalID != "p-2" {
			t.Errorf("client %d got %+v", i, got)
		}
	}
}

func TestHubRemovesDisconnectedClients(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing to an empty hub is a no-op.
	hub.CheckCompleted(checks.Event{ProposalID: "p-3"})
}
