package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickerzip/internal/notify"
	"stickerzip/internal/source"
)

// Client adapts the Bot API to the pipeline's source.Provider and
// notify.Channel interfaces. The underlying library is not context-aware, so
// each call checks for cancellation up front.
type Client struct {
	api *tgbotapi.BotAPI
}

func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to bot api: %w", err)
	}
	return &Client{api: api}, nil
}

// Username reports the bot account name, for startup logging.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// LookupSet implements source.Provider. A bad-request response means the set
// does not exist.
func (c *Client) LookupSet(ctx context.Context, name string) ([]source.ItemRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set, err := c.api.GetStickerSet(tgbotapi.GetStickerSetConfig{Name: name})
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", source.ErrSetNotFound, name)
		}
		return nil, err
	}

	refs := make([]source.ItemRef, 0, len(set.Stickers))
	for _, s := range set.Stickers {
		refs = append(refs, source.ItemRef{
			ID:   s.FileID,
			Size: int64(s.FileSize),
			Kind: stickerKind(s),
		})
	}
	return refs, nil
}

func stickerKind(s tgbotapi.Sticker) string {
	switch {
	case s.IsAnimated:
		return "animated"
	case s.IsVideo:
		return "video"
	default:
		return "static"
	}
}

// ResolveContentLocation implements source.Provider: it trades the file ID
// for a short-lived download URL.
func (c *Client) ResolveContentLocation(ctx context.Context, ref source.ItemRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := c.api.GetFile(tgbotapi.FileConfig{FileID: ref.ID})
	if err != nil {
		return "", fmt.Errorf("resolving file %s: %w", ref.ID, err)
	}
	return f.Link(c.api.Token), nil
}

func (c *Client) SendStatus(ctx context.Context, chatID int64, text string) (notify.StatusHandle, error) {
	if err := ctx.Err(); err != nil {
		return notify.StatusHandle{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := c.api.Send(msg)
	if err != nil {
		return notify.StatusHandle{}, err
	}
	return notify.StatusHandle{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (c *Client) EditStatus(ctx context.Context, h notify.StatusHandle, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewEditMessageText(h.ChatID, h.MessageID, text))
	return err
}

func (c *Client) DeleteStatus(ctx context.Context, h notify.StatusHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(h.ChatID, h.MessageID))
	return err
}

func (c *Client) SendArchive(ctx context.Context, chatID int64, path, filename, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive for delivery: %w", err)
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: filename, Reader: f})
	doc.Caption = caption
	_, err = c.api.Send(doc)
	return err
}

func (c *Client) Reply(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
