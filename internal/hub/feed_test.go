package hub_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"complaintbot/backend/internal/hub"
	"complaintbot/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, c *MockClient) models.FeedEvent {
	t.Helper()
	select {
	case data := <-c.RecvChannel:
		var ev models.FeedEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("client did not receive feed event")
	}
	return models.FeedEvent{}
}

func TestFeed_BroadcastLocal(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := hub.NewFeed(nil, zap.NewNop())
	go feed.Run(ctx)

	clientA := newMockClient("dash_A", 4)
	clientB := newMockClient("dash_B", 4)
	feed.RegisterCh <- clientA
	feed.RegisterCh <- clientB

	// Act
	feed.Emit(ctx, models.FeedEvent{Type: models.FeedQueued, RecordID: "rec-1"})

	// Assert
	for _, c := range []*MockClient{clientA, clientB} {
		ev := receive(t, c)
		assert.Equal(t, models.FeedQueued, ev.Type)
		assert.Equal(t, "rec-1", ev.RecordID)
	}
}

func TestFeed_Unregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := hub.NewFeed(nil, zap.NewNop())
	go feed.Run(ctx)

	client := newMockClient("dash_A", 4)
	feed.RegisterCh <- client
	feed.UnregisterCh <- client
	time.Sleep(100 * time.Millisecond)

	assert.True(t, client.IsClosed())
	feed.Emit(ctx, models.FeedEvent{Type: models.FeedApproved, RecordID: "rec-1"})
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, client.RecvChannel)
}

// TestFeed_DropsSlowClient verifies a client with a full buffer is disconnected.
func TestFeed_DropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := hub.NewFeed(nil, zap.NewNop())
	go feed.Run(ctx)

	slow := newMockClient("slow", 0)
	feed.RegisterCh <- slow

	feed.Emit(ctx, models.FeedEvent{Type: models.FeedEdited, RecordID: "rec-1"})
	time.Sleep(100 * time.Millisecond)

	assert.True(t, slow.IsClosed())
}

func TestFeed_ClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	feed := hub.NewFeed(nil, zap.NewNop())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(done)
	}()

	client := newMockClient("dash_A", 4)
	feed.RegisterCh <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feed did not stop")
	}
	assert.True(t, client.IsClosed())
}

// TestFeed_Relay verifies events travel through the relay rather than straight to clients.
func TestFeed_Relay(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	relayed := make(chan models.FeedEvent, 4)
	relay := new(MockRelay)
	relay.On("Subscribe", mock.Anything).Return((<-chan models.FeedEvent)(relayed), nil)
	relay.On("Publish", mock.Anything, mock.AnythingOfType("models.FeedEvent")).
		Run(func(args mock.Arguments) { relayed <- args.Get(1).(models.FeedEvent) }).
		Return(nil)

	feed := hub.NewFeed(relay, zap.NewNop())
	go feed.Run(ctx)
	client := newMockClient("dash_A", 4)
	feed.RegisterCh <- client

	// Act
	feed.Emit(ctx, models.FeedEvent{Type: models.FeedRejected, RecordID: "rec-9"})

	// Assert
	ev := receive(t, client)
	assert.Equal(t, "rec-9", ev.RecordID)
	relay.AssertNumberOfCalls(t, "Publish", 1)
	// подія з relay приходить один раз
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, client.RecvChannel)
}

func TestFeed_RelayFailureFallsBackToLocal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	relay := new(MockRelay)
	relay.On("Subscribe", mock.Anything).Return((<-chan models.FeedEvent)(make(chan models.FeedEvent)), nil)
	relay.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	feed := hub.NewFeed(relay, zap.NewNop())
	go feed.Run(ctx)
	client := newMockClient("dash_A", 4)
	feed.RegisterCh <- client

	feed.Emit(ctx, models.FeedEvent{Type: models.FeedQueued, RecordID: "rec-2"})

	assert.Equal(t, "rec-2", receive(t, client).RecordID)
}
