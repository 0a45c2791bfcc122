// Package bot implements the Telegram front end. It authenticates nothing
// itself: Telegram delivers a trusted user id with every update, which the
// bot resolves through the tracker before acting.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"budgetbot/internal/service"
)

// conversationTTL bounds how long a half-finished add-transaction dialog is
// kept before the bot forgets it.
const conversationTTL = 15 * time.Minute

// Bot wraps the Telegram API client with the tracker and per-chat
// conversation state.
type Bot struct {
	api     *tgbotapi.BotAPI
	tracker *service.Tracker
	logger  *slog.Logger
	pending *pendingStates
}

// New creates a Bot with the given token.
func New(token string, tracker *service.Tracker, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:     api,
		tracker: tracker,
		logger:  logger,
		pending: newPendingStates(conversationTTL),
	}, nil
}

// Run starts long polling and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.handleUpdate(ctx, update); err != nil {
				b.logger.Error("failed to handle update", "error", err)
			}
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	if update.Message.IsCommand() {
		return b.handleCommand(ctx, update.Message)
	}
	return b.handleMessage(ctx, update.Message)
}

// displayName renders the attribution name for a Telegram user: the
// @username when present, otherwise the full name.
func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (b *Bot) reply(chatID int64, text string, keyboard any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	_, err := b.api.Send(msg)
	return err
}
