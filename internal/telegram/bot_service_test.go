package telegram_test

import (
	"context"
	"testing"
	"time"

	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func privateMessage(m tgbotapi.Message) *tgbotapi.Message {
	m.Chat = tgbotapi.Chat{ID: 12345, Type: "private"}
	m.From = &tgbotapi.User{ID: 12345}
	m.MessageID = 10
	return &m
}

func TestToEvent(t *testing.T) {
	tests := []struct {
		name   string
		update tgbotapi.Update
		want   models.Event
		ok     bool
	}{
		{
			name: "command",
			update: tgbotapi.Update{Message: privateMessage(tgbotapi.Message{
				Text:     "/start",
				Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
			})},
			want: models.Event{ActorID: 12345, Kind: models.EventCommand, Text: "start", MessageID: 10},
			ok:   true,
		},
		{
			name:   "text",
			update: tgbotapi.Update{Message: privateMessage(tgbotapi.Message{Text: "Ivan Petrov"})},
			want:   models.Event{ActorID: 12345, Kind: models.EventText, Text: "Ivan Petrov", MessageID: 10},
			ok:     true,
		},
		{
			name: "largest photo",
			update: tgbotapi.Update{Message: privateMessage(tgbotapi.Message{
				Caption: "at the desk",
				Photo:   []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
			})},
			want: models.Event{
				ActorID: 12345, Kind: models.EventMedia, Text: "at the desk", MessageID: 10,
				Media: &models.Media{Kind: models.AttachmentPhoto, FileID: "large"},
			},
			ok: true,
		},
		{
			name: "document",
			update: tgbotapi.Update{Message: privateMessage(tgbotapi.Message{
				Document: &tgbotapi.Document{FileID: "doc", FileName: "scan.pdf"},
			})},
			want: models.Event{
				ActorID: 12345, Kind: models.EventMedia, MessageID: 10,
				Media: &models.Media{Kind: models.AttachmentDocument, FileID: "doc", FileName: "scan.pdf"},
			},
			ok: true,
		},
		{
			name: "video",
			update: tgbotapi.Update{Message: privateMessage(tgbotapi.Message{
				Video: &tgbotapi.Video{FileID: "vid"},
			})},
			want: models.Event{
				ActorID: 12345, Kind: models.EventMedia, MessageID: 10,
				Media: &models.Media{Kind: models.AttachmentVideo, FileID: "vid"},
			},
			ok: true,
		},
		{
			name: "callback",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb",
				Data:    "fired:yes",
				Message: privateMessage(tgbotapi.Message{Text: "Was the staff member dismissed?"}),
			}},
			want: models.Event{ActorID: 12345, Kind: models.EventSelection, Choice: "fired:yes", MessageID: 10},
			ok:   true,
		},
		{
			name: "callback actor is the presser",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb",
				From:    &tgbotapi.User{ID: 777},
				Data:    "adm:approve:rec-1",
				Message: privateMessage(tgbotapi.Message{Text: "Review"}),
			}},
			want: models.Event{ActorID: 777, Kind: models.EventSelection, Choice: "adm:approve:rec-1", MessageID: 10},
			ok:   true,
		},
		{
			name:   "sticker is unsupported",
			update: tgbotapi.Update{Message: privateMessage(tgbotapi.Message{Sticker: &tgbotapi.Sticker{FileID: "st"}})},
			ok:     false,
		},
		{
			name: "group chat is ignored",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				Text: "hello",
				Chat: tgbotapi.Chat{ID: -1, Type: "group"},
			}},
			ok: false,
		},
		{
			name:   "empty update",
			update: tgbotapi.Update{},
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := telegram.ToEvent(tt.update)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBotService_Run(t *testing.T) {
	// Arrange
	api := new(MockSender)
	api.On("Request", mock.MatchedBy(func(c tgbotapi.CallbackConfig) bool { return c.CallbackQueryID == "cb-1" })).
		Return(&tgbotapi.APIResponse{Ok: true}, nil)
	api.On("Send", textIs("⚠️ This message type is not supported.")).Return(tgbotapi.Message{}, nil)

	incoming := make(chan models.Event, 4)
	svc := telegram.NewBotService(api, incoming, newClient(api), zap.NewNop())

	updates := make(chan tgbotapi.Update, 3)
	updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    "menu:new",
		Message: privateMessage(tgbotapi.Message{}),
	}}
	updates <- tgbotapi.Update{Message: privateMessage(tgbotapi.Message{Sticker: &tgbotapi.Sticker{FileID: "st"}})}
	updates <- tgbotapi.Update{Message: privateMessage(tgbotapi.Message{Text: "hello"})}
	close(updates)

	// Act
	done := make(chan struct{})
	go func() {
		svc.Run(context.Background(), updates)
		close(done)
	}()

	// Assert
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the update channel closed")
	}
	require.Len(t, incoming, 2)
	assert.Equal(t, "menu:new", (<-incoming).Choice)
	assert.Equal(t, "hello", (<-incoming).Text)
	api.AssertExpectations(t)
}
