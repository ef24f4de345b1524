package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"remindbot/commands"
	"remindbot/models"
	"remindbot/store"
)

// ReminderHandler exposes the reminder lifecycle over the admin HTTP API. It
// drives the same scheduler and registry as the chat commands.
type ReminderHandler struct {
	registry  *store.Registry
	scheduler *Scheduler
	history   *store.History
}

func NewReminderHandler(registry *store.Registry, scheduler *Scheduler, history *store.History) *ReminderHandler {
	return &ReminderHandler{registry: registry, scheduler: scheduler, history: history}
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders := h.registry.List()
	if reminders == nil {
		reminders = []models.Reminder{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reminders)
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ChatID == 0 {
		http.Error(w, "chat_id is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		http.Error(w, "Task is required", http.StatusBadRequest)
		return
	}

	fireAt, err := commands.ResolveTimeToken(strings.TrimSpace(req.When), time.Now())
	if err != nil {
		http.Error(w, "Invalid time format: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := h.scheduler.Schedule(req.ChatID, req.Task, fireAt)
	rem, ok := h.registry.Get(id)
	if !ok {
		// Already fired; report what was scheduled.
		rem = models.Reminder{ID: id, ChatID: req.ChatID, Task: req.Task, FireAt: fireAt}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rem)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid reminder ID", http.StatusBadRequest)
		return
	}

	if !h.scheduler.Cancel(id) {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
}

func (h *ReminderHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.history.Recent(limit)
	if err != nil {
		http.Error(w, "Failed to fetch history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
