package hub_test

import (
	"context"
	"sync"

	"complaintbot/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	id          string
	RecvChannel chan []byte

	once   sync.Once
	closed chan struct{}
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		RecvChannel: make(chan []byte, buffer),
		closed:      make(chan struct{}),
	}
}

func (c *MockClient) GetClientID() string            { return c.id }
func (c *MockClient) GetSendChannel() chan<- []byte { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *MockClient) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Publish(ctx context.Context, ev models.FeedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockRelay) Subscribe(ctx context.Context) (<-chan models.FeedEvent, error) {
	args := m.Called(ctx)
	ch, _ := args.Get(0).(<-chan models.FeedEvent)
	return ch, args.Error(1)
}
