package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"remindbot/models"
)

func TestHubBroadcastReachesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the hub a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(models.WSMessage{
		Type:    models.WSTypeReminderFired,
		Payload: models.Reminder{ID: 1, ChatID: 7, Task: "buy milk"},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != models.WSTypeReminderFired {
		t.Errorf("type = %q, want %q", msg.Type, models.WSTypeReminderFired)
	}

	payload, _ := json.Marshal(msg.Payload)
	var rem models.Reminder
	json.Unmarshal(payload, &rem)
	if rem.ID != 1 || rem.Task != "buy milk" {
		t.Errorf("payload = %+v", rem)
	}
}

func TestHubSurvivesClientDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	// Broadcasting after the only client left must not panic or block.
	hub.Broadcast(models.WSMessage{Type: models.WSTypeReminderSet})
}
