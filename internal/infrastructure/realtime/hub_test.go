package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tabib_ai/internal/domain/entities"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, origins ...string) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(origins...)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastsEventsToAllClients(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Notify(context.Background(), entities.OrderEvent{
		Type: entities.OrderEventDone,
		Order: entities.Order{
			ID:          "ord-1",
			PatientName: "Siti",
			Complaint:   "sakit kepala sejak kemarin",
			Status:      entities.OrderStatusDone,
			Recipe:      entities.Recipe{"jahe": "3 gram"},
		},
	})

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg["type"] != string(entities.OrderEventDone) || msg["order_id"] != "ord-1" || msg["status"] != string(entities.OrderStatusDone) {
			t.Fatalf("unexpected event %v", msg)
		}
		if strings.Contains(string(data), "sakit kepala") || strings.Contains(string(data), "jahe") {
			t.Fatalf("broadcast leaked order details: %s", data)
		}
	}
}

func TestHub_RejectsUnlistedOrigins(t *testing.T) {
	hub, srv := startHub(t, "https://tabib.example")

	header := http.Header{"Origin": []string{"https://evil.example"}}
	if conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header); err == nil {
		conn.Close()
		t.Fatalf("expected foreign origin to be rejected")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got resp=%v err=%v", resp, err)
	}

	header = http.Header{"Origin": []string{"https://tabib.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if err != nil {
		t.Fatalf("listed origin rejected: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	waitForClients(t, hub, 1)
}

func TestOriginChecker(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://any.example", host: "api.example", want: true},
		{name: "no origin header", allowed: nil, origin: "", host: "api.example", want: true},
		{name: "same host", allowed: nil, origin: "https://api.example", host: "api.example", want: true},
		{name: "listed with trailing slash", allowed: []string{" https://tabib.example/ "}, origin: "https://Tabib.example", host: "api.example", want: true},
		{name: "foreign", allowed: []string{"https://tabib.example"}, origin: "https://evil.example", host: "api.example", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
			r.Host = tc.host
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if got := originChecker(tc.allowed)(r); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_NotifyWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+5; i++ {
			hub.Notify(context.Background(), entities.OrderEvent{Type: entities.OrderEventCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("notify blocked on a stopped hub")
	}
}
