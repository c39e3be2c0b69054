// Package bus is an in-process publish/subscribe channel between
// components. It replaces ambient messenger singletons: components receive
// a *Bus as a constructor dependency and unsubscribe on teardown.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Message is implemented by every message variant carried on the bus.
type Message interface {
	messageType() string
}

// NavigateToPage asks the page viewer to display a page.
type NavigateToPage struct {
	Page int
}

func (NavigateToPage) messageType() string { return "navigate-to-page" }

// PagesModified announces a structural document change (rotate, delete,
// insert, reorder) so listeners can refresh dependent state.
type PagesModified struct {
	PageCount int
}

func (PagesModified) messageType() string { return "pages-modified" }

// Handler receives published messages. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Message)

// Bus fans published messages out to all current subscribers. Safe for
// concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[uuid.UUID]Handler)}
}

// Subscription identifies one subscriber for later removal.
type Subscription struct {
	bus *Bus
	id  uuid.UUID
}

// Subscribe registers h for every subsequent publish.
func (b *Bus) Subscribe(h Handler) Subscription {
	id := uuid.New()
	b.mu.Lock()
	b.subs[id] = h
	b.mu.Unlock()
	return Subscription{bus: b, id: id}
}

// Unsubscribe removes the subscriber. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
}

// Publish delivers msg to every subscriber, synchronously, in unspecified
// order.
func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
}
