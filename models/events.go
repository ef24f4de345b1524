package models

// WebSocket event envelope for the dashboard feed
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeReminderSet       = "reminder_set"
	WSTypeReminderFired     = "reminder_fired"
	WSTypeReminderCancelled = "reminder_cancelled"
)

// ReminderCancelledPayload carries the identifier of a reminder removed
// before its fire time.
type ReminderCancelledPayload struct {
	ID     int64 `json:"id"`
	ChatID int64 `json:"chat_id"`
}
