package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"remindbot/commands"
	"remindbot/logger"
)

const helpText = `Here are the commands you can use:

/help - See a list of available commands
/start - Get started with the bot!
/remindme - Set a reminder with the following formats:
  1. For a delay: use hours (h), minutes (m), and seconds (s), like:
     10h, 15m, 23s, 10h12m32s, 32m50s, 2h5m
  2. For a specific time: use HH:MM or HH:MMam/pm, like:
     13:49, 20:12, 7:15, 12:00pm, 6:51pm, 3:02am
  After the time, add a space and then your task, like:
     buy milk, water the plants, etc.
  Example 1: /remindme 3h12m buy milk
  Example 2: /remindme 3:00pm Water the plants
/cancel - Choose a reminder to cancel

Use these commands to interact with me!`

const greetingText = "Hello, you scatterbrain! I can remind you about things. Use /help to see available commands."

// Router maps inbound chat messages onto the bot's command surface. Commands
// always win over a pending cancel dialog, matching the priority users
// expect when they bail out of the dialog with another command.
type Router struct {
	scheduler *Scheduler
	dialog    *CancelDialog
	sender    ChatSender
}

func NewRouter(scheduler *Scheduler, dialog *CancelDialog, sender ChatSender) *Router {
	return &Router{scheduler: scheduler, dialog: dialog, sender: sender}
}

// HandleMessage routes one inbound message from a chat.
func (r *Router) HandleMessage(chatID int64, text string) {
	text = strings.TrimSpace(text)

	switch {
	case text == "/start":
		r.reply(chatID, greetingText)
	case text == "/help":
		r.reply(chatID, helpText)
	case text == "/cancel":
		r.reply(chatID, r.dialog.Begin(chatID))
	case text == "/remindme" || strings.HasPrefix(text, "/remindme "):
		r.remindMe(chatID, strings.TrimSpace(strings.TrimPrefix(text, "/remindme")))
	case r.dialog.Awaiting(chatID):
		r.reply(chatID, r.dialog.Submit(chatID, text))
	default:
		r.reply(chatID, "I don't know that one. Use /help to see available commands.")
	}
}

func (r *Router) remindMe(chatID int64, args string) {
	fireAt, task, err := commands.ParseSchedule(args, time.Now())
	if err != nil {
		r.reply(chatID, scheduleErrorText(err))
		return
	}

	r.scheduler.Schedule(chatID, task, fireAt)
	r.reply(chatID, fmt.Sprintf("Reminder set! I'll remind you to: %s at %s.",
		task, fireAt.Format("03:04 PM")))
}

func (r *Router) reply(chatID int64, text string) {
	if err := r.sender.SendText(chatID, text); err != nil {
		logger.Error().Err(err).Int64("chatID", chatID).Msg("send reply failed")
	}
}

// scheduleErrorText maps each parse failure onto its guidance message.
func scheduleErrorText(err error) string {
	switch {
	case errors.Is(err, commands.ErrMissingTask):
		return "Failed to parse the task. Make sure to include a space before and after the time.\nExample: /remindme 2h15m Buy milk"
	case errors.Is(err, commands.ErrNotClockTime):
		return "Invalid time format!\nUse HH:MM (24h) or HH:MMam/pm (12h)."
	case errors.Is(err, commands.ErrUnparseableDuration):
		return "Please provide time in the correct format.\nUse /help to learn more.\nExample: /remindme 2h15m Buy milk"
	default:
		return "Please make sure to use the correct format.\nExample: /remindme 2h15m Buy milk\nUse /help to learn more."
	}
}
