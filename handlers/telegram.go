package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"remindbot/logger"
)

const defaultTelegramAPI = "https://api.telegram.org"

type tgUpdate struct {
	UpdateID int        `json:"update_id"`
	Message  *tgMessage `json:"message"`
}

type tgMessage struct {
	MessageID int    `json:"message_id"`
	Chat      tgChat `json:"chat"`
	Text      string `json:"text"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

// TelegramBot is the chat transport: a getUpdates long-poll loop for inbound
// commands and the outbound send calls the scheduler notifies through.
type TelegramBot struct {
	token       string
	apiBase     string
	pollTimeout int
	client      *http.Client
	router      *Router
}

func NewTelegramBot(token string) *TelegramBot {
	return &TelegramBot{
		token:       token,
		apiBase:     defaultTelegramAPI,
		pollTimeout: 50,
		// Must outlast the long-poll timeout.
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// SetRouter attaches the command router. Set after construction because the
// router also needs the bot as its ChatSender.
func (b *TelegramBot) SetRouter(r *Router) {
	b.router = r
}

// Poll runs the long-poll loop until ctx is cancelled, dispatching every
// inbound text message to the router.
func (b *TelegramBot) Poll(ctx context.Context) {
	offset := 0
	logger.Info().Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		url := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=%d",
			b.apiBase, b.token, offset, b.pollTimeout)

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := b.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("telegram poll error")
			time.Sleep(5 * time.Second)
			continue
		}

		var body struct {
			OK     bool       `json:"ok"`
			Result []tgUpdate `json:"result"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		for _, u := range body.Result {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			b.router.HandleMessage(u.Message.Chat.ID, u.Message.Text)
		}
	}
}

// SendText posts a plain text message to a chat.
func (b *TelegramBot) SendText(chatID int64, text string) error {
	return b.call("sendMessage", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
}

// SendPhoto posts a photo by URL with a caption.
func (b *TelegramBot) SendPhoto(chatID int64, photoURL, caption string) error {
	return b.call("sendPhoto", map[string]interface{}{
		"chat_id": chatID,
		"photo":   photoURL,
		"caption": caption,
	})
}

func (b *TelegramBot) call(method string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", b.apiBase, b.token, method)
	resp, err := b.client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !body.OK {
		return fmt.Errorf("telegram %s: %s", method, body.Description)
	}
	return nil
}
