package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickerzip/internal/pipeline"
	"stickerzip/internal/setname"
)

const (
	greetingText = "Hi! Send me any sticker from a set, or a link to a set. " +
		"I'll convert the stickers to JPG and reply with a ZIP archive."
	noSetText       = "Could not determine the sticker set. Send a sticker or a link."
	internalErrText = "An internal error occurred. Try sending the sticker or link again."
)

// Bot runs the long-poll update loop and starts one pipeline job per
// sticker or text message.
type Bot struct {
	client       *Client
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

func NewBot(client *Client, orchestrator *pipeline.Orchestrator, logger *slog.Logger) *Bot {
	return &Bot{client: client, orchestrator: orchestrator, logger: logger}
}

// Run blocks until ctx is cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.registerCommands(); err != nil {
		b.logger.Warn("could not register bot commands", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.client.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.client.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) registerCommands() error {
	cmd := tgbotapi.NewSetMyCommands(tgbotapi.BotCommand{
		Command:     "start",
		Description: "send a sticker or a set link to get a ZIP of JPGs",
	})
	_, err := b.client.api.Request(cmd)
	return err
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", "chat_id", msg.Chat.ID, "panic", r)
			_ = b.client.Reply(ctx, msg.Chat.ID, internalErrText)
		}
	}()

	if msg.IsCommand() {
		if msg.Command() == "start" {
			if err := b.client.Reply(ctx, msg.Chat.ID, greetingText); err != nil {
				b.logger.Warn("greeting failed", "chat_id", msg.Chat.ID, "error", err)
			}
		}
		return
	}

	name := setNameFromMessage(msg)
	if name == "" {
		if err := b.client.Reply(ctx, msg.Chat.ID, noSetText); err != nil {
			b.logger.Warn("usage reply failed", "chat_id", msg.Chat.ID, "error", err)
		}
		return
	}

	b.orchestrator.Run(ctx, pipeline.Request{ChatID: msg.Chat.ID, SetName: name})
}

// setNameFromMessage prefers the set name attached to a sticker; otherwise
// the message text (verbatim or as a share link).
func setNameFromMessage(msg *tgbotapi.Message) string {
	if msg.Sticker != nil && msg.Sticker.SetName != "" {
		return setname.Sanitize(msg.Sticker.SetName)
	}
	if msg.Text != "" {
		return setname.FromText(msg.Text)
	}
	return ""
}
