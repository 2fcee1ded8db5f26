// Package hub serializes event processing per actor and fans the moderation
// feed out to dashboard clients.
package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"complaintbot/backend/internal/models"

	"go.uber.org/zap"
)

// Handler processes one event. Calls for the same actor never overlap.
type Handler func(ctx context.Context, ev models.Event)

const mailboxSize = 32

// mailbox is the queue of one actor, drained by its own goroutine.
type mailbox struct {
	actorID int64
	events  chan models.Event
}

// ManagerService routes incoming events to per-actor mailboxes. Events of one
// actor are handled strictly in arrival order; different actors run concurrently.
type ManagerService struct {
	// IncomingCh receives every translated event from the transport.
	IncomingCh chan models.Event

	unregisterCh chan *mailbox
	mailboxes    map[int64]*mailbox

	handler Handler
	idle    time.Duration
	log     *zap.Logger

	active atomic.Int64
	wg     sync.WaitGroup
}

// NewManagerService creates a manager. A mailbox is retired after idle without events.
func NewManagerService(handler Handler, idle time.Duration, log *zap.Logger) *ManagerService {
	return &ManagerService{
		IncomingCh:   make(chan models.Event),
		unregisterCh: make(chan *mailbox),
		mailboxes:    make(map[int64]*mailbox),
		handler:      handler,
		idle:         idle,
		log:          log,
	}
}

// Active returns the number of live mailboxes.
func (m *ManagerService) Active() int {
	return int(m.active.Load())
}

// Run is the main loop. It returns after ctx is cancelled and every worker
// has drained its mailbox.
func (m *ManagerService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for id, mb := range m.mailboxes {
				close(mb.events)
				delete(m.mailboxes, id)
			}
			m.wg.Wait()
			return

		case ev := <-m.IncomingCh:
			mb, ok := m.mailboxes[ev.ActorID]
			if !ok {
				mb = &mailbox{actorID: ev.ActorID, events: make(chan models.Event, mailboxSize)}
				m.mailboxes[ev.ActorID] = mb
				m.active.Add(1)
				m.wg.Add(1)
				go m.work(ctx, mb)
			}
			mb.events <- ev

		case mb := <-m.unregisterCh:
			// Only this loop sends to mailboxes, so an empty buffer here means
			// nothing is in flight for the actor.
			if len(mb.events) > 0 {
				continue
			}
			if cur, ok := m.mailboxes[mb.actorID]; ok && cur == mb {
				delete(m.mailboxes, mb.actorID)
				close(mb.events)
			}
		}
	}
}

// work drains one mailbox until it is closed.
func (m *ManagerService) work(ctx context.Context, mb *mailbox) {
	defer func() {
		m.active.Add(-1)
		m.wg.Done()
	}()

	timer := time.NewTimer(m.idle)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-mb.events:
			if !ok {
				return
			}
			m.handle(ctx, ev)
			resetTimer(timer, m.idle)

		case <-timer.C:
			select {
			case m.unregisterCh <- mb:
				// Якщо менеджер не закрив скриньку, нові події вже в дорозі.
			case ev, ok := <-mb.events:
				if !ok {
					return
				}
				m.handle(ctx, ev)
			case <-ctx.Done():
			}
			timer.Reset(m.idle)
		}
	}
}

func (m *ManagerService) handle(ctx context.Context, ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("event handler panicked",
				zap.Int64("actor_id", ev.ActorID),
				zap.String("kind", string(ev.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	m.handler(ctx, ev)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
