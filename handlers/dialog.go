package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"remindbot/store"
)

type dialogState int

const (
	dialogIdle dialogState = iota
	dialogAwaitingID
)

// CancelDialog runs the two-step cancellation protocol: list the active
// reminders, then accept an identifier. State is scoped per chat; the
// registry it reads is shared across all chats.
type CancelDialog struct {
	registry  *store.Registry
	scheduler *Scheduler

	mu     sync.Mutex
	states map[int64]dialogState
}

func NewCancelDialog(registry *store.Registry, scheduler *Scheduler) *CancelDialog {
	return &CancelDialog{
		registry:  registry,
		scheduler: scheduler,
		states:    make(map[int64]dialogState),
	}
}

// Begin handles the cancel command and returns the reply text. The dialog
// only advances to awaiting-ID when there is something to cancel.
func (d *CancelDialog) Begin(chatID int64) string {
	list := d.registry.List()
	if len(list) == 0 {
		return "No active reminders."
	}

	var b strings.Builder
	b.WriteString("Choose a reminder to cancel by sending its ID:")
	for _, rem := range list {
		fmt.Fprintf(&b, "\n%d: %s", rem.ID, rem.Task)
	}

	d.setState(chatID, dialogAwaitingID)
	return b.String()
}

// Awaiting reports whether the chat's next message is a cancel-ID reply.
func (d *CancelDialog) Awaiting(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[chatID] == dialogAwaitingID
}

// Submit consumes the ID reply. Invalid or unknown input keeps the dialog
// awaiting so the user can retry; only a successful cancel returns it to
// idle.
func (d *CancelDialog) Submit(chatID int64, input string) string {
	input = strings.TrimSpace(input)
	if !isDigits(input) {
		return "Invalid input. Please enter a valid reminder ID."
	}

	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil || !d.scheduler.Cancel(id) {
		return "Invalid reminder ID. Please enter a valid one or use another command to exit."
	}

	d.setState(chatID, dialogIdle)
	return fmt.Sprintf("Reminder %d cancelled.", id)
}

func (d *CancelDialog) setState(chatID int64, s dialogState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s == dialogIdle {
		delete(d.states, chatID)
		return
	}
	d.states[chatID] = s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
