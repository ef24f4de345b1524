package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"remindbot/store"
)

func newTestRouter(t *testing.T) (*Router, *fakeSender, *store.Registry) {
	t.Helper()
	registry := store.NewRegistry()
	sender := &fakeSender{}
	scheduler := NewScheduler(context.Background(), registry, nil, sender, nil, nil, nil)
	dialog := NewCancelDialog(registry, scheduler)
	return NewRouter(scheduler, dialog, sender), sender, registry
}

func lastReply(t *testing.T, sender *fakeSender) string {
	t.Helper()
	texts := sender.sentTexts()
	if len(texts) == 0 {
		t.Fatal("no reply sent")
	}
	return texts[len(texts)-1]
}

func TestRouterStartAndHelp(t *testing.T) {
	r, sender, _ := newTestRouter(t)

	r.HandleMessage(7, "/start")
	if got := lastReply(t, sender); !strings.Contains(got, "scatterbrain") {
		t.Errorf("start reply = %q", got)
	}

	r.HandleMessage(7, "/help")
	got := lastReply(t, sender)
	for _, want := range []string{"/remindme", "/cancel", "/start"} {
		if !strings.Contains(got, want) {
			t.Errorf("help reply missing %q", want)
		}
	}
}

func TestRouterRemindMe(t *testing.T) {
	r, sender, registry := newTestRouter(t)

	r.HandleMessage(7, "/remindme 10h buy milk")
	got := lastReply(t, sender)
	if !strings.Contains(got, "Reminder set! I'll remind you to: buy milk") {
		t.Errorf("reply = %q", got)
	}
	if registry.Len() != 1 {
		t.Fatalf("registry length = %d, want 1", registry.Len())
	}

	rem := registry.List()[0]
	if rem.ChatID != 7 || rem.Task != "buy milk" {
		t.Errorf("reminder = %+v", rem)
	}
	wantDelay := 10 * time.Hour
	if d := time.Until(rem.FireAt); d < wantDelay-time.Minute || d > wantDelay+time.Minute {
		t.Errorf("fire delay = %v, want about %v", d, wantDelay)
	}
}

func TestRouterRemindMeErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"malformed_time", "/remindme later buy milk", "Please make sure to use the correct format."},
		{"bad_duration", "/remindme hms buy milk", "Please provide time in the correct format."},
		{"bad_clock_time", "/remindme 25:00 buy milk", "Invalid time format!"},
		{"missing_task", "/remindme 2h15m", "Failed to parse the task."},
		{"no_arguments", "/remindme", "Please make sure to use the correct format."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, sender, registry := newTestRouter(t)
			r.HandleMessage(7, tc.input)
			if got := lastReply(t, sender); !strings.Contains(got, tc.want) {
				t.Errorf("reply = %q, want substring %q", got, tc.want)
			}
			if registry.Len() != 0 {
				t.Error("reminder scheduled despite error")
			}
		})
	}
}

func TestRouterCancelFlow(t *testing.T) {
	r, sender, registry := newTestRouter(t)

	r.HandleMessage(7, "/remindme 1h buy milk")
	r.HandleMessage(7, "/cancel")
	if got := lastReply(t, sender); !strings.Contains(got, "Choose a reminder to cancel") {
		t.Fatalf("cancel prompt = %q", got)
	}

	// Retries stay inside the dialog.
	r.HandleMessage(7, "nope")
	if got := lastReply(t, sender); !strings.Contains(got, "Invalid input") {
		t.Errorf("reply = %q", got)
	}
	r.HandleMessage(7, "42")
	if got := lastReply(t, sender); !strings.Contains(got, "Invalid reminder ID") {
		t.Errorf("reply = %q", got)
	}

	r.HandleMessage(7, "1")
	if got := lastReply(t, sender); got != "Reminder 1 cancelled." {
		t.Errorf("reply = %q", got)
	}
	if registry.Len() != 0 {
		t.Error("reminder still live after dialog cancel")
	}

	// Dialog is back to idle: a bare number is now an unknown message.
	r.HandleMessage(7, "1")
	if got := lastReply(t, sender); !strings.Contains(got, "/help") {
		t.Errorf("post-dialog reply = %q", got)
	}
}

func TestRouterCancelWithNoReminders(t *testing.T) {
	r, sender, _ := newTestRouter(t)

	r.HandleMessage(7, "/cancel")
	if got := lastReply(t, sender); got != "No active reminders." {
		t.Errorf("reply = %q", got)
	}
	// No dialog begun: the next message is not treated as an ID.
	r.HandleMessage(7, "5")
	if got := lastReply(t, sender); strings.Contains(got, "Invalid reminder ID") {
		t.Errorf("reply = %q, dialog should not be active", got)
	}
}

func TestRouterUnknownMessage(t *testing.T) {
	r, sender, _ := newTestRouter(t)

	r.HandleMessage(7, "hello there")
	if got := lastReply(t, sender); !strings.Contains(got, "/help") {
		t.Errorf("reply = %q", got)
	}
}

func TestRouterCommandsBeatPendingDialog(t *testing.T) {
	r, sender, _ := newTestRouter(t)

	r.HandleMessage(7, "/remindme 1h buy milk")
	r.HandleMessage(7, "/cancel")

	// A command sent mid-dialog runs as a command.
	r.HandleMessage(7, "/help")
	if got := lastReply(t, sender); !strings.Contains(got, "Here are the commands") {
		t.Errorf("reply = %q", got)
	}
}
