package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
)

type fakeUnread struct {
	count int
	err   error
}

func (f fakeUnread) CountUnread(ctx context.Context, userID int) (int, error) {
	return f.count, f.err
}

func newTestHub(t *testing.T, unread UnreadCounter) (*Hub, *auth.Auth, *httptest.Server) {
	t.Helper()
	a := auth.New("test-secret")
	hub := New(logger.Discard(), a, unread)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.Start(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)
	return hub, a, server
}

func dial(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func readMessage(t *testing.T, ws *websocket.Conn) models.WSMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(time.Second))
	var msg models.WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	return msg
}

func TestServeWs_RejectsMissingToken(t *testing.T) {
	_, _, server := newTestHub(t, nil)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", resp)
	}
}

func TestServeWs_RejectsWrongPurpose(t *testing.T) {
	_, a, server := newTestHub(t, nil)
	token, _ := a.Issue(1, "a@example.com", models.RoleUser, auth.PurposeReset, time.Minute)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + token
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Error("expected reset token to be rejected")
	}
}

func TestServeWs_RegistersUnderUserID(t *testing.T) {
	hub, a, server := newTestHub(t, nil)
	token, _ := a.SessionToken(7, "a@example.com", models.RoleUser)

	dial(t, server, token)
	waitFor(t, func() bool { return hub.IsConnected(7) })

	if hub.IsConnected(8) {
		t.Error("user 8 should not be connected")
	}
}

func TestServeWs_SendsUnreadCountOnConnect(t *testing.T) {
	_, a, server := newTestHub(t, fakeUnread{count: 3})
	token, _ := a.SessionToken(7, "a@example.com", models.RoleUser)

	ws := dial(t, server, token)
	msg := readMessage(t, ws)
	if msg.Type != "unread_count" {
		t.Fatalf("expected unread_count, got %q", msg.Type)
	}
	payload, _ := msg.Payload.(map[string]interface{})
	if payload["unread"] != float64(3) {
		t.Errorf("expected unread 3, got %v", msg.Payload)
	}
}

func TestHub_SendToUser_OnlyTargetReceives(t *testing.T) {
	hub, a, server := newTestHub(t, fakeUnread{err: errors.New("skip")})
	t1, _ := a.SessionToken(1, "a@example.com", models.RoleUser)
	t2, _ := a.SessionToken(2, "b@example.com", models.RoleUser)

	ws1 := dial(t, server, t1)
	ws2 := dial(t, server, t2)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.SendToUser(2, "notification", map[string]string{"title": "Hi"})

	msg := readMessage(t, ws2)
	if msg.Type != "notification" {
		t.Errorf("expected notification, got %q", msg.Type)
	}

	ws1.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var other models.WSMessage
	if err := ws1.ReadJSON(&other); err == nil {
		t.Errorf("user 1 should not receive user 2's message, got %+v", other)
	}
}

func TestHub_BroadcastMessage_AllClients(t *testing.T) {
	hub, a, server := newTestHub(t, nil)
	var conns []*websocket.Conn
	for id := 1; id <= 3; id++ {
		token, _ := a.SessionToken(id, "u@example.com", models.RoleUser)
		conns = append(conns, dial(t, server, token))
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	hub.BroadcastMessage("announcement", "hello")

	for i, ws := range conns {
		if msg := readMessage(t, ws); msg.Type != "announcement" {
			t.Errorf("client %d: expected announcement, got %q", i, msg.Type)
		}
	}
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	hub, a, server := newTestHub(t, nil)
	token, _ := a.SessionToken(5, "a@example.com", models.RoleUser)

	ws1 := dial(t, server, token)
	ws2 := dial(t, server, token)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.SendToUser(5, "ping", nil)
	readMessage(t, ws1)
	readMessage(t, ws2)

	ws1.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	if !hub.IsConnected(5) {
		t.Error("user should still be connected through the second socket")
	}
}

func TestHub_SendToUser_NoClientsDoesNotBlock(t *testing.T) {
	hub := New(logger.Discard(), auth.New("s"), nil)

	done := make(chan bool)
	go func() {
		for i := 0; i < 1000; i++ {
			hub.SendToUser(1, "test", i)
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("SendToUser blocked with hub not running")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	a := auth.New("test-secret")
	hub := New(logger.Discard(), a, nil)
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	token, _ := a.SessionToken(1, "a@example.com", models.RoleUser)
	ws := dial(t, server, token)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	ws.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}
