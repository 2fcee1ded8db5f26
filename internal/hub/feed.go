package hub

import (
	"context"

	"complaintbot/backend/internal/models"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a dashboard connection subscribed to the moderation feed.
type Client interface {
	// GetClientID returns a unique identifier of the connection.
	GetClientID() string
	// GetSendChannel returns the channel the feed writes encoded events to.
	GetSendChannel() chan<- []byte
	// Run starts the client's pumps.
	Run()
	// Close stops the write pump and closes the connection.
	Close()
}

// Relay carries feed events between bot instances.
type Relay interface {
	Publish(ctx context.Context, ev models.FeedEvent) error
	Subscribe(ctx context.Context) (<-chan models.FeedEvent, error)
}

// Feed broadcasts moderation feed events to connected clients.
type Feed struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	broadcastCh chan models.FeedEvent
	clients     map[string]Client
	relay       Relay
	log         *zap.Logger
}

// NewFeed creates a feed. relay may be nil for a single instance.
func NewFeed(relay Relay, log *zap.Logger) *Feed {
	return &Feed{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		broadcastCh:  make(chan models.FeedEvent, 64),
		clients:      make(map[string]Client),
		relay:        relay,
		log:          log,
	}
}

// Emit publishes an event. With a relay every instance, this one included,
// receives it through the subscription.
func (f *Feed) Emit(ctx context.Context, ev models.FeedEvent) {
	if f.relay != nil {
		err := f.relay.Publish(ctx, ev)
		if err == nil {
			return
		}
		f.log.Error("feed relay publish failed, broadcasting locally", zap.String("record_id", ev.RecordID), zap.Error(err))
	}
	select {
	case f.broadcastCh <- ev:
	case <-ctx.Done():
	}
}

// startRelayListener forwards relayed events into the broadcast loop.
func (f *Feed) startRelayListener(ctx context.Context) {
	events, err := f.relay.Subscribe(ctx)
	if err != nil {
		f.log.Error("feed relay subscribe failed", zap.Error(err))
		return
	}
	go func() {
		for ev := range events {
			select {
			case f.broadcastCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Run is the broadcast loop.
func (f *Feed) Run(ctx context.Context) {
	if f.relay != nil {
		f.startRelayListener(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for id, c := range f.clients {
				c.Close()
				delete(f.clients, id)
			}
			return

		case c := <-f.RegisterCh:
			f.clients[c.GetClientID()] = c
			f.log.Debug("feed client registered", zap.String("client_id", c.GetClientID()))

		case c := <-f.UnregisterCh:
			if _, ok := f.clients[c.GetClientID()]; ok {
				delete(f.clients, c.GetClientID())
				c.Close()
			}

		case ev := <-f.broadcastCh:
			data, err := json.Marshal(ev)
			if err != nil {
				f.log.Error("feed event encoding failed", zap.String("record_id", ev.RecordID), zap.Error(err))
				continue
			}
			for id, c := range f.clients {
				select {
				case c.GetSendChannel() <- data:
				default:
					// Повільний клієнт: відключаємо.
					delete(f.clients, id)
					c.Close()
				}
			}
		}
	}
}
