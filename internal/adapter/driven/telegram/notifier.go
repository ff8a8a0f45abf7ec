// Package telegram implements the Notifier port on the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the subset of tgbotapi.BotAPI used for delivery. Narrowed for tests.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers notification text to Telegram chats. Subscriber identities
// are numeric chat IDs carried as opaque strings at the domain boundary.
//
// The Bot API client has no per-call context support; the bounded timeout
// comes from the HTTP client the bot was constructed with. The context is
// still honored between sends so a shutting-down dispatcher stops promptly.
type Notifier struct {
	bot sender
}

// NewNotifier creates a Notifier on an already-authorized bot client.
func NewNotifier(bot *tgbotapi.BotAPI) *Notifier {
	return &Notifier{bot: bot}
}

// Send delivers one message to the given chat. A failed delivery is returned
// to the caller and never retried here.
func (n *Notifier) Send(ctx context.Context, subscriberID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(subscriberID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", subscriberID, err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message to chat %d: %w", chatID, err)
	}

	return nil
}
