// Package telegram adapts the Telegram Bot API to the relay: it decodes webhook
// updates into relay events and delivers replies through a relay.Notifier.
package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fpt/klein-relay/internal/relay"
)

// DecodeUpdate parses a webhook body into a Telegram update
func DecodeUpdate(body []byte) (tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return tgbotapi.Update{}, fmt.Errorf("failed to decode update: %w", err)
	}
	return update, nil
}

// ToEvent converts an update into a relay event. The second result is false
// for updates the relay does not handle (edits, channel posts, inline queries)
// and for updates missing the sender or chat.
func ToEvent(update tgbotapi.Update) (relay.Event, bool) {
	switch {
	case update.Message != nil:
		m := update.Message
		if m.From == nil || m.Chat == nil {
			return nil, false
		}
		return relay.Message{ChatID: m.Chat.ID, UserID: m.From.ID, Text: m.Text}, true

	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		// Inline-mode callbacks carry no message and so no chat to answer in.
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return nil, false
		}
		return relay.CallbackQuery{
			ID:     q.ID,
			ChatID: q.Message.Chat.ID,
			UserID: q.From.ID,
			Data:   q.Data,
		}, true
	}
	return nil, false
}
