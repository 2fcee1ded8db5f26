package hub

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Таймінги з'єднання дашборда
const (
	feedWriteTimeout = 10 * time.Second
	feedPongTimeout  = 60 * time.Second
	feedPingInterval = feedPongTimeout * 9 / 10
	// дашборд нічого не надсилає, крім control-кадрів
	feedReadLimit = 512
	feedOutboxLen = 16
)

// FeedConn is a dashboard websocket subscribed to the moderation feed.
type FeedConn struct {
	id     string
	conn   *websocket.Conn
	feed   *Feed
	outbox chan []byte

	ctx context.Context
	log *zap.Logger
}

// NewFeedConn wraps an upgraded connection. ctx bounds the connection's life.
func NewFeedConn(ctx context.Context, conn *websocket.Conn, feed *Feed, log *zap.Logger) *FeedConn {
	id := uuid.New().String()
	return &FeedConn{
		id:     id,
		conn:   conn,
		feed:   feed,
		outbox: make(chan []byte, feedOutboxLen),
		ctx:    ctx,
		log:    log.With(zap.String("client_id", id)),
	}
}

func (c *FeedConn) GetClientID() string            { return c.id }
func (c *FeedConn) GetSendChannel() chan<- []byte { return c.outbox }

// Run starts the delivery and keep-alive loops.
func (c *FeedConn) Run() {
	go c.deliver()
	go c.keepAlive()
}

// Close is called by the feed only; it ends deliver, which closes the socket.
func (c *FeedConn) Close() {
	close(c.outbox)
}

// keepAlive drains control frames so pongs extend the deadline. It leaves the
// feed as soon as the socket fails.
func (c *FeedConn) keepAlive() {
	defer c.leave()

	c.conn.SetReadLimit(feedReadLimit)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongTimeout))
	}
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.log.Warn("feed client read failed", zap.Error(err))
		}
		return
	}
}

func (c *FeedConn) leave() {
	select {
	case c.feed.UnregisterCh <- c:
	case <-c.ctx.Done():
	}
	c.conn.Close()
}

// deliver writes one encoded event per text frame and pings on a timer.
func (c *FeedConn) deliver() {
	ping := time.NewTicker(feedPingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind    int
			payload []byte
		)
		select {
		case data, ok := <-c.outbox:
			if !ok {
				// фід відписав клієнта
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			kind, payload = websocket.TextMessage, data
		case <-ping.C:
			kind, payload = websocket.PingMessage, nil
		}
		if err := c.write(kind, payload); err != nil {
			c.log.Debug("feed client write failed", zap.Error(err))
			return
		}
	}
}

func (c *FeedConn) write(kind int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, payload)
}
