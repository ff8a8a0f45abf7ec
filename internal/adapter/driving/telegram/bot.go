// Package telegram is the driving adapter that turns Telegram bot commands
// into subscription management calls.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ekorchagin/commitwatch/internal/application"
)

const helpText = `I watch GitHub repositories and message you when they receive new commits.

Commands:
/watch <owner>/<name> - start watching a repository (github.com links work too)
/unwatch <owner>/<name> - stop watching a repository
/list - show the repositories you're watching
/help - show this message`

// Bot runs the Telegram long-polling loop and dispatches commands to the
// watch service. It is a thin adapter: parsing and reply rendering live here,
// all decisions live in the application layer.
type Bot struct {
	api     *tgbotapi.BotAPI
	watches *application.WatchService
	logger  *slog.Logger
}

// NewBot creates a Bot on an already-authorized Telegram client.
func NewBot(api *tgbotapi.BotAPI, watches *application.WatchService, logger *slog.Logger) *Bot {
	return &Bot{
		api:     api,
		watches: watches,
		logger:  logger,
	}
}

// Run consumes updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes a single update. Non-command messages are ignored.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	subscriberID := strconv.FormatInt(msg.Chat.ID, 10)
	reply := b.ExecuteCommand(ctx, msg.Command(), msg.CommandArguments(), subscriberID)
	if reply == "" {
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.DisableWebPagePreview = true
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("telegram reply failed", "chat", msg.Chat.ID, "command", msg.Command(), "error", err)
	}
}

// ExecuteCommand runs one bot command and returns the reply text.
func (b *Bot) ExecuteCommand(ctx context.Context, command, args, subscriberID string) string {
	switch command {
	case "start", "help":
		return helpText
	case "watch":
		return b.handleWatch(ctx, args, subscriberID)
	case "unwatch":
		return b.handleUnwatch(ctx, args, subscriberID)
	case "list":
		return b.handleList(ctx, subscriberID)
	default:
		return fmt.Sprintf("Unknown command /%s. Send /help for the list of commands.", command)
	}
}

func (b *Bot) handleWatch(ctx context.Context, args, subscriberID string) string {
	if strings.TrimSpace(args) == "" {
		return "Tell me which repository to watch: /watch <owner>/<name> or a github.com link."
	}

	res, err := b.watches.AddWatch(ctx, args, subscriberID)
	switch {
	case err == nil && res.AlreadyWatching:
		return fmt.Sprintf("You're already watching %s.", res.FullName)
	case err == nil:
		return fmt.Sprintf("Now watching %s. I'll message you when it receives new commits.", res.FullName)
	case errors.Is(err, application.ErrInvalidRepoRef):
		return "That doesn't look like a repository. Use <owner>/<name> or a github.com link."
	case errors.Is(err, application.ErrOwnerNotFound):
		return "That GitHub user or organization doesn't exist. Check the owner name."
	case errors.Is(err, application.ErrRepoNotFound):
		return "That repository doesn't exist on GitHub. Check the name."
	default:
		b.logger.Error("add watch failed", "subscriber", subscriberID, "ref", args, "error", err)
		return "Something went wrong, please try again later."
	}
}

func (b *Bot) handleUnwatch(ctx context.Context, args, subscriberID string) string {
	if strings.TrimSpace(args) == "" {
		return "Tell me which repository to stop watching: /unwatch <owner>/<name>."
	}

	res, err := b.watches.RemoveWatch(ctx, args, subscriberID)
	switch {
	case err == nil && res.Removed:
		return fmt.Sprintf("Stopped watching %s.", res.FullName)
	case err == nil:
		return fmt.Sprintf("You're not watching %s.", res.FullName)
	case errors.Is(err, application.ErrInvalidRepoRef):
		return "That doesn't look like a repository. Use <owner>/<name> or a github.com link."
	default:
		b.logger.Error("remove watch failed", "subscriber", subscriberID, "ref", args, "error", err)
		return "Something went wrong, please try again later."
	}
}

func (b *Bot) handleList(ctx context.Context, subscriberID string) string {
	watches, err := b.watches.ListWatches(ctx, subscriberID)
	if err != nil {
		b.logger.Error("list watches failed", "subscriber", subscriberID, "error", err)
		return "Something went wrong, please try again later."
	}

	if len(watches) == 0 {
		return "You're not watching any repositories yet. Add one with /watch <owner>/<name>."
	}

	var sb strings.Builder
	sb.WriteString("Your watched repositories:\n")
	for _, w := range watches {
		marker := "never checked"
		if w.LastSeenCommit != "" {
			marker = "last commit " + shortSHA(w.LastSeenCommit)
		}
		fmt.Fprintf(&sb, "%s - %s\n", w.FullName, marker)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
