package telegram

import (
	"context"
	"errors"
	"time"

	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/render"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxMessageRunes is the Telegram limit for a text message.
const maxMessageRunes = 4096

// Sender is the part of *tgbotapi.BotAPI the transport uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client renders prompts as Telegram messages and implements the
// moderation sinks.
type Client struct {
	API       Sender
	ChannelID int64

	r   *render.Renderer
	log *zap.Logger

	retries    uint64
	newBackOff func() backoff.BackOff
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetries sets how many times a failed request is retried.
func WithRetries(n uint64) ClientOption {
	return func(c *Client) { c.retries = n }
}

// WithBackOff replaces the retry schedule.
func WithBackOff(f func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = f }
}

// NewClient creates a Client. channelID is where approved complaints are posted.
func NewClient(api Sender, channelID int64, r *render.Renderer, log *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		API:       api,
		ChannelID: channelID,
		r:         r,
		log:       log,
		retries:   3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver sends prompts in order. A failed prompt is logged and skipped.
func (c *Client) Deliver(ctx context.Context, prompts []models.Prompt) {
	for _, p := range prompts {
		if err := c.deliver(ctx, p); err != nil {
			c.log.Error("prompt delivery failed", zap.Int64("target_id", p.TargetID), zap.Error(err))
		}
	}
}

func (c *Client) deliver(ctx context.Context, p models.Prompt) error {
	if p.EditMessageID != 0 && len(p.Choices) > 0 {
		// Оновлюємо лише клавіатуру існуючого повідомлення.
		edit := tgbotapi.NewEditMessageReplyMarkup(p.TargetID, p.EditMessageID, Keyboard(p.Choices, p.Columns))
		return c.request(ctx, edit)
	}

	msg := tgbotapi.NewMessage(p.TargetID, clip(p.Message, maxMessageRunes))
	if len(p.Choices) > 0 {
		msg.ReplyMarkup = Keyboard(p.Choices, p.Columns)
	}
	return c.send(ctx, msg)
}

// Keyboard lays a choice set out as an inline keyboard, columns buttons per
// row. Choices with a URL become link buttons.
func Keyboard(set models.ChoiceSet, columns int) tgbotapi.InlineKeyboardMarkup {
	if columns <= 0 {
		columns = 1
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, ch := range set {
		if ch.URL != "" {
			row = append(row, tgbotapi.NewInlineKeyboardButtonURL(ch.Label, ch.URL))
		} else {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(ch.Label, ch.ID))
		}
		if len(row) == columns {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) error {
	return c.retry(ctx, func() error {
		_, err := c.API.Send(msg)
		return err
	})
}

func (c *Client) request(ctx context.Context, cfg tgbotapi.Chattable) error {
	return c.retry(ctx, func() error {
		_, err := c.API.Request(cfg)
		return err
	})
}

// retry repeats op while the error is transient: rate limits, server
// errors and network failures. Other API errors are returned at once.
func (c *Client) retry(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.retries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}

func retryable(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return true
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
