package models

import "time"

// Reminder is an active scheduled notification. It lives in the in-memory
// registry from the moment it is accepted until it fires or is cancelled.
type Reminder struct {
	ID         int64      `json:"id"`
	ChatID     int64      `json:"chat_id"`
	Task       string     `json:"task"`
	FireAt     time.Time  `json:"fire_at"`
	CreatedAt  time.Time  `json:"created_at"`
	Enrichment Enrichment `json:"enrichment"`
}

// Enrichment is optional content attached at creation time and delivered
// alongside the notification. Empty fields mean the lookup was skipped or
// failed.
type Enrichment struct {
	ImageURL        string `json:"image_url,omitempty"`
	Photographer    string `json:"photographer,omitempty"`
	PhotographerURL string `json:"photographer_url,omitempty"`
	Joke            string `json:"joke,omitempty"`
}

func (e Enrichment) HasImage() bool {
	return e.ImageURL != ""
}

type CreateReminderRequest struct {
	ChatID int64  `json:"chat_id"`
	When   string `json:"when"` // "2h15m", "3.5h", "13:49", "7:15pm"
	Task   string `json:"task"`
}

// Reminder outcomes recorded to the history log.
const (
	OutcomeFired     = "fired"
	OutcomeCancelled = "cancelled"
)

// HistoryEntry is one resolved reminder in the SQLite history log.
type HistoryEntry struct {
	ID         string    `json:"id"`
	ReminderID int64     `json:"reminder_id"`
	ChatID     int64     `json:"chat_id"`
	Task       string    `json:"task"`
	Outcome    string    `json:"outcome"`
	FireAt     time.Time `json:"fire_at"`
	ResolvedAt time.Time `json:"resolved_at"`
}
