package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"remindbot/models"
)

// Registry is the single shared store of active reminders, constructed once
// at process start and injected into everything that schedules, lists, or
// cancels. Identifiers come from a monotonic counter and are never reused, so
// an ID observed once always refers to the same reminder.
type Registry struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64]*entry
}

type entry struct {
	reminder models.Reminder
	cancel   context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]*entry)}
}

// Allocate stores a new reminder under a fresh identifier and returns it. The
// entry is fully constructed before it becomes visible to List or Remove.
func (r *Registry) Allocate(chatID int64, task string, fireAt time.Time, enrich models.Enrichment, cancel context.CancelFunc) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.entries[id] = &entry{
		reminder: models.Reminder{
			ID:         id,
			ChatID:     chatID,
			Task:       task,
			FireAt:     fireAt,
			CreatedAt:  time.Now(),
			Enrichment: enrich,
		},
		cancel: cancel,
	}
	return id
}

// Remove deletes the reminder if it is still live and reports whether this
// call performed the removal. Exactly one of two racing callers sees true,
// which makes Remove the arbiter between a fire and a cancel.
func (r *Registry) Remove(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Get returns a copy of a live reminder.
func (r *Registry) Get(id int64) (models.Reminder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return models.Reminder{}, false
	}
	return e.reminder, true
}

// CancelHandle returns the cancellation handle for a live reminder. The
// handle stops the reminder's timer goroutine; calling it more than once is
// harmless.
func (r *Registry) CancelHandle(id int64) (context.CancelFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.cancel, true
}

// List returns a snapshot of live reminders sorted by identifier ascending.
func (r *Registry) List() []models.Reminder {
	r.mu.RLock()
	out := make([]models.Reminder, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.reminder)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of live reminders.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
