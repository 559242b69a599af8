package identity

import (
	"sync"

	"github.com/goliatone/go-attendance/core"
)

const defaultSubscriptionBuffer = 8

// Subscription receives auth state changes until Cancel is called.
type Subscription struct {
	Events <-chan core.AuthEvent

	events  chan core.AuthEvent
	id      uint64
	owner   *subscribers
	once    sync.Once
	mu      sync.Mutex
	closed  bool
	dropped int
}

func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.owner != nil {
			s.owner.remove(s.id)
		}
		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) deliver(event core.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- event:
	default:
		s.dropped++
	}
}

type subscribers struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]*Subscription
}

// add registers a subscriber and hands it the event built by initial. Both
// happen under the lock publish holds, so a concurrent change is delivered
// after the initial event and never before it.
func (s *subscribers) add(buffer int, initial func() core.AuthEvent) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	events := make(chan core.AuthEvent, buffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[uint64]*Subscription{}
	}
	s.nextID++
	sub := &Subscription{Events: events, events: events, id: s.nextID, owner: s}
	if initial != nil {
		sub.deliver(initial())
	}
	s.items[sub.id] = sub
	return sub
}

func (s *subscribers) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// publish fans event out without blocking; deliver drops on a full buffer.
func (s *subscribers) publish(event core.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.items {
		sub.deliver(event)
	}
}
