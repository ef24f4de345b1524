package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"remindbot/models"
	"remindbot/store"
)

func newTestAPI(t *testing.T) (*httptest.Server, *store.Registry, *Scheduler) {
	t.Helper()

	f, err := os.CreateTemp("", "api_history_*.db")
	if err != nil {
		t.Fatalf("create temp db: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	history, err := store.OpenHistory(f.Name())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { history.Close() })

	registry := store.NewRegistry()
	scheduler := NewScheduler(context.Background(), registry, history, &fakeSender{}, nil, nil, nil)
	h := NewReminderHandler(registry, scheduler, history)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reminders", h.List)
	mux.HandleFunc("POST /api/reminders", h.Create)
	mux.HandleFunc("DELETE /api/reminders/{id}", h.Delete)
	mux.HandleFunc("GET /api/history", h.History)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, registry, scheduler
}

func TestAPICreateListDelete(t *testing.T) {
	srv, registry, _ := newTestAPI(t)

	body, _ := json.Marshal(models.CreateReminderRequest{ChatID: 7, When: "2h", Task: "buy milk"})
	resp, err := http.Post(srv.URL+"/api/reminders", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	var created models.Reminder
	json.NewDecoder(resp.Body).Decode(&created)
	if created.ID != 1 || created.Task != "buy milk" || created.ChatID != 7 {
		t.Errorf("created = %+v", created)
	}

	resp, err = http.Get(srv.URL + "/api/reminders")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var listed []models.Reminder
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed) != 1 || listed[0].ID != 1 {
		t.Errorf("listed = %+v", listed)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/reminders/%d", srv.URL, created.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d, want 200", resp.StatusCode)
	}
	if registry.Len() != 0 {
		t.Error("reminder still live after delete")
	}
}

func TestAPICreateValidation(t *testing.T) {
	srv, _, _ := newTestAPI(t)

	cases := []struct {
		name string
		req  models.CreateReminderRequest
	}{
		{"missing_chat_id", models.CreateReminderRequest{When: "2h", Task: "x"}},
		{"missing_task", models.CreateReminderRequest{ChatID: 7, When: "2h"}},
		{"bad_time", models.CreateReminderRequest{ChatID: 7, When: "whenever", Task: "x"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			resp, err := http.Post(srv.URL+"/api/reminders", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestAPIDeleteUnknownID(t *testing.T) {
	srv, _, _ := newTestAPI(t)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/reminders/99", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/reminders/abc", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPIHistoryAfterCancel(t *testing.T) {
	srv, _, scheduler := newTestAPI(t)

	id := scheduler.Schedule(7, "buy milk", time.Now().Add(time.Hour))
	if !scheduler.Cancel(id) {
		t.Fatal("cancel failed")
	}

	resp, err := http.Get(srv.URL + "/api/history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer resp.Body.Close()

	var entries []models.HistoryEntry
	json.NewDecoder(resp.Body).Decode(&entries)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Outcome != models.OutcomeCancelled || entries[0].ReminderID != id {
		t.Errorf("entry = %+v", entries[0])
	}
}
