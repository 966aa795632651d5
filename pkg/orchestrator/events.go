package orchestrator

import (
	"sync"

	"irabuilder/pkg/logx"
	"irabuilder/pkg/proto"
)

const subscriberBuffer = 64

// eventBus fans workflow events out to subscribers. Publishing never blocks:
// a subscriber that stops draining its channel loses events rather than
// stalling the state machine.
type eventBus struct {
	mu     sync.Mutex
	subs   map[int]chan *proto.WorkflowEvent
	nextID int
	logger *logx.Logger
}

func newEventBus() *eventBus {
	return &eventBus{
		subs:   make(map[int]chan *proto.WorkflowEvent),
		logger: logx.NewLogger("events"),
	}
}

// Subscribe returns a channel of workflow events and a cancel function.
func (b *eventBus) Subscribe() (<-chan *proto.WorkflowEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan *proto.WorkflowEvent, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber, dropping on full buffers.
func (b *eventBus) Publish(event *proto.WorkflowEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("subscriber %d buffer full, dropping %s event", id, event.Type)
		}
	}
}

// Close closes all subscriber channels.
func (b *eventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
