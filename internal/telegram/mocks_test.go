package telegram_test

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
)

// MockSender is a mock implementation of the Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *MockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func textIs(text string) any {
	return mock.MatchedBy(func(m tgbotapi.MessageConfig) bool { return m.Text == text })
}

func isMessage() any {
	return mock.MatchedBy(func(m tgbotapi.MessageConfig) bool { return true })
}

func isPhoto() any {
	return mock.MatchedBy(func(p tgbotapi.PhotoConfig) bool { return true })
}
