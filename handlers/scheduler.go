package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remindbot/ai"
	"remindbot/logger"
	"remindbot/models"
	"remindbot/store"
)

// ChatSender delivers messages back to a chat. The Telegram bot implements
// it; tests substitute fakes.
type ChatSender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, photoURL, caption string) error
}

// ImageFinder looks up an illustration for a task.
type ImageFinder interface {
	FindImage(query string) (*ai.Image, error)
}

// JokeTeller produces a joke riffing on the task text.
type JokeTeller interface {
	Joke(taskText string) (string, error)
}

// Tasks longer than this skip the image lookup, which also disables the
// photo+caption notification path.
const maxImageQueryWords = 8

// Scheduler owns one timer goroutine per active reminder. The registry's
// Remove call arbitrates the fire/cancel race: whichever side removes the
// entry performs the side effects, the other does nothing.
type Scheduler struct {
	registry *store.Registry
	history  *store.History // nil disables the outcome log
	sender   ChatSender
	images   ImageFinder // nil skips image enrichment
	jokes    JokeTeller  // nil skips joke enrichment
	events   *Hub        // nil disables the event feed
	baseCtx  context.Context
}

func NewScheduler(ctx context.Context, registry *store.Registry, history *store.History, sender ChatSender, images ImageFinder, jokes JokeTeller, events *Hub) *Scheduler {
	return &Scheduler{
		registry: registry,
		history:  history,
		sender:   sender,
		images:   images,
		jokes:    jokes,
		events:   events,
		baseCtx:  ctx,
	}
}

// Schedule registers a reminder and starts its timer. Enrichment lookups run
// before the timer starts so a slow third-party call delays creation, never
// firing. The returned identifier is live until the reminder fires or is
// cancelled.
func (s *Scheduler) Schedule(chatID int64, task string, fireAt time.Time) int64 {
	enrich := s.enrich(task)

	ctx, cancel := context.WithCancel(s.baseCtx)
	id := s.registry.Allocate(chatID, task, fireAt, enrich, cancel)
	go s.run(ctx, id)

	logger.Info().Int64("id", id).Int64("chatID", chatID).
		Time("fireAt", fireAt).Msg("reminder scheduled")
	s.broadcast(models.WSTypeReminderSet, models.Reminder{
		ID: id, ChatID: chatID, Task: task, FireAt: fireAt, Enrichment: enrich,
	})
	return id
}

// Cancel stops a live reminder before it fires. It returns false when the
// identifier is unknown or the reminder fired first.
func (s *Scheduler) Cancel(id int64) bool {
	rem, ok := s.registry.Get(id)
	if !ok {
		return false
	}
	handle, ok := s.registry.CancelHandle(id)
	if !ok {
		return false
	}
	if !s.registry.Remove(id) {
		// Fired in the meantime.
		return false
	}
	handle()

	logger.Info().Int64("id", id).Msg("reminder cancelled")
	s.record(rem, models.OutcomeCancelled)
	s.broadcast(models.WSTypeReminderCancelled, models.ReminderCancelledPayload{
		ID: rem.ID, ChatID: rem.ChatID,
	})
	return true
}

func (s *Scheduler) run(ctx context.Context, id int64) {
	rem, ok := s.registry.Get(id)
	if !ok {
		return
	}

	// Negative waits fire immediately; the target time is never re-evaluated.
	timer := time.NewTimer(time.Until(rem.FireAt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		// Cancelled; the canceller owns registry removal and bookkeeping.
		return
	case <-timer.C:
	}

	if !s.registry.Remove(id) {
		// Lost the race against a near-simultaneous cancel.
		return
	}

	s.notify(rem)
	s.record(rem, models.OutcomeFired)
	s.broadcast(models.WSTypeReminderFired, rem)
}

func (s *Scheduler) notify(rem models.Reminder) {
	if rem.Enrichment.HasImage() {
		caption := strings.TrimSpace(fmt.Sprintf("by %s %s",
			rem.Enrichment.Photographer, rem.Enrichment.PhotographerURL))
		if err := s.sender.SendPhoto(rem.ChatID, rem.Enrichment.ImageURL, caption); err != nil {
			logger.Error().Err(err).Int64("id", rem.ID).Msg("send reminder photo failed")
		}
	}
	if err := s.sender.SendText(rem.ChatID, "⏰ Reminder: "+rem.Task); err != nil {
		logger.Error().Err(err).Int64("id", rem.ID).Msg("send reminder failed")
	}
	if rem.Enrichment.Joke != "" {
		if err := s.sender.SendText(rem.ChatID, rem.Enrichment.Joke); err != nil {
			logger.Error().Err(err).Int64("id", rem.ID).Msg("send joke failed")
		}
	}
	logger.Info().Int64("id", rem.ID).Int64("chatID", rem.ChatID).Msg("reminder fired")
}

// enrich gathers best-effort extras for the notification. Failures degrade to
// a plain reminder, they never block scheduling.
func (s *Scheduler) enrich(task string) models.Enrichment {
	var e models.Enrichment

	if s.images != nil && len(strings.Fields(task)) <= maxImageQueryWords {
		img, err := s.images.FindImage(task)
		if err != nil {
			logger.Warn().Err(err).Msg("image lookup failed")
		} else if img != nil {
			e.ImageURL = img.URL
			e.Photographer = img.Photographer
			e.PhotographerURL = img.PhotographerURL
		}
	}

	if s.jokes != nil {
		joke, err := s.jokes.Joke(task)
		if err != nil {
			logger.Warn().Err(err).Msg("joke lookup failed")
		} else {
			e.Joke = joke
		}
	}
	return e
}

func (s *Scheduler) record(rem models.Reminder, outcome string) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(rem, outcome); err != nil {
		logger.Warn().Err(err).Int64("id", rem.ID).Msg("history record failed")
	}
}

func (s *Scheduler) broadcast(eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(models.WSMessage{Type: eventType, Payload: payload})
}
