// Package telegram handles the integration with the Telegram Bot API.
// It translates updates into transport-neutral events for the hub and
// renders prompts and moderation views back into Telegram messages.
package telegram

import (
	"context"

	"complaintbot/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// NewBotAPI authorizes the bot.
func NewBotAPI(token string, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Info("authorized on telegram", zap.String("account", bot.Self.UserName))
	return bot, nil
}

// BotService is responsible for receiving Telegram updates and routing them to the hub.
type BotService struct {
	API      Sender
	Incoming chan<- models.Event
	Client   *Client

	log *zap.Logger
}

// NewBotService creates a new BotService instance.
func NewBotService(api Sender, incoming chan<- models.Event, client *Client, log *zap.Logger) *BotService {
	return &BotService{
		API:      api,
		Incoming: incoming,
		Client:   client,
		log:      log,
	}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx
// is cancelled or the update channel is closed.
func (s *BotService) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.handleUpdate(ctx, update)
		}
	}
}

func (s *BotService) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		// Відповідаємо на callback, щоб прибрати "годинник" на кнопці
		if _, err := s.API.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			s.log.Warn("callback answer failed", zap.Error(err))
		}
	}

	ev, ok := ToEvent(update)
	if !ok {
		if msg := update.Message; msg != nil && msg.Chat.Type == "private" {
			s.Client.Deliver(ctx, []models.Prompt{{
				TargetID: msg.Chat.ID,
				Message:  s.Client.r.T("unsupported_message"),
			}})
		}
		return
	}

	select {
	case s.Incoming <- ev:
	case <-ctx.Done():
	}
}

// ToEvent converts an update into an event. It reports false for updates
// the bot does not handle: edits, channel posts, group chats, stickers and
// other unsupported media.
func ToEvent(update tgbotapi.Update) (models.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Data == "" {
			return models.Event{}, false
		}
		// Дія належить тому, хто натиснув кнопку, а не чату з повідомленням.
		actor := cq.Message.Chat.ID
		if cq.From != nil {
			actor = cq.From.ID
		}
		return models.Event{
			ActorID:   actor,
			Kind:      models.EventSelection,
			Choice:    cq.Data,
			MessageID: cq.Message.MessageID,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.Chat.Type != "private" {
		return models.Event{}, false
	}
	ev := models.Event{ActorID: msg.Chat.ID, MessageID: msg.MessageID}

	switch {
	case msg.IsCommand():
		ev.Kind = models.EventCommand
		ev.Text = msg.Command()
	case msg.Text != "":
		ev.Kind = models.EventText
		ev.Text = msg.Text
	case len(msg.Photo) > 0:
		// Остання PhotoSize має найбільшу роздільну здатність
		largest := msg.Photo[len(msg.Photo)-1]
		ev.Kind = models.EventMedia
		ev.Text = msg.Caption
		ev.Media = &models.Media{Kind: models.AttachmentPhoto, FileID: largest.FileID}
	case msg.Document != nil:
		ev.Kind = models.EventMedia
		ev.Text = msg.Caption
		ev.Media = &models.Media{Kind: models.AttachmentDocument, FileID: msg.Document.FileID, FileName: msg.Document.FileName}
	case msg.Video != nil:
		ev.Kind = models.EventMedia
		ev.Text = msg.Caption
		ev.Media = &models.Media{Kind: models.AttachmentVideo, FileID: msg.Video.FileID, FileName: msg.Video.FileName}
	default:
		return models.Event{}, false
	}
	return ev, true
}
