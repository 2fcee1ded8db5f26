package storage

import (
	"context"

	"complaintbot/backend/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FeedChannel is the Redis channel that carries moderation feed events.
const FeedChannel = "complaints:feed"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FeedRelay carries feed events between bot instances over Redis Pub/Sub.
type FeedRelay struct {
	Redis   *redis.Client
	Channel string
	log     *zap.Logger
}

// NewFeedRelay creates a relay on FeedChannel.
func NewFeedRelay(rdb *redis.Client, log *zap.Logger) *FeedRelay {
	return &FeedRelay{Redis: rdb, Channel: FeedChannel, log: log}
}

// Publish публікує подію в Redis Pub/Sub.
func (r *FeedRelay) Publish(ctx context.Context, ev models.FeedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode feed event")
	}
	return errors.Wrapf(r.Redis.Publish(ctx, r.Channel, string(payload)).Err(), "publish to %s", r.Channel)
}

// Subscribe returns the stream of relayed events. The stream is closed when
// ctx is cancelled.
func (r *FeedRelay) Subscribe(ctx context.Context) (<-chan models.FeedEvent, error) {
	pubsub := r.Redis.Subscribe(ctx, r.Channel)
	// Чекаємо підтвердження підписки, інакше перші події загубляться.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, errors.Wrapf(err, "subscribe to %s", r.Channel)
	}

	out := make(chan models.FeedEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.log.Warn("dropping malformed feed event", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
