package realtime

import (
	"context"
	"log"
	"sync"
)

// Hub is the in-process subscription registry
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers handler for every event matching filter. The handler runs on the
// subscription's own goroutine, one event at a time, in publish order.
func (h *Hub) Subscribe(filter Filter, handler func(Event)) *Subscription {
	sub := newSubscription(h, filter, handler)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.stop()
		return sub
	}
	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	h.mu.Unlock()

	go sub.run()
	return sub
}

// Publish dispatches locally; it never fails
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.Dispatch(event)
	return nil
}

// Dispatch queues event on every matching subscription without waiting for handlers
func (h *Hub) Dispatch(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.filter.Matches(event) {
			sub.Deliver(event)
		}
	}
}

// Len returns the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close cancels every subscription. Later subscriptions are born cancelled.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[uint64]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Subscription is a live registration. The zero value is not usable; obtain one from Hub.Subscribe.
type Subscription struct {
	id      uint64
	hub     *Hub
	filter  Filter
	handler func(Event)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	last   map[string]int64
	closed bool

	once sync.Once
	done chan struct{}
}

func newSubscription(hub *Hub, filter Filter, handler func(Event)) *Subscription {
	sub := &Subscription{
		hub:     hub,
		filter:  filter,
		handler: handler,
		last:    make(map[string]int64),
		done:    make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	return sub
}

// Deliver queues event for this subscription only, bypassing the filter.
// Used for the initial snapshot so it is ordered before any later update.
func (s *Subscription) Deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, event)
	s.cond.Signal()
}

// Unsubscribe stops delivery. Safe to call more than once, from a handler, or after Hub.Close.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.id != 0 {
			s.hub.remove(s.id)
		}
		s.close()
	})
}

// Done is closed once the delivery goroutine has exited
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// stop is Unsubscribe for callers that already dropped the registry entry
func (s *Subscription) stop() {
	s.once.Do(s.close)
	if s.id == 0 {
		// never started a goroutine
		close(s.done)
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *Subscription) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		event := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]

		key := event.feedKey()
		if last, seen := s.last[key]; seen && event.stale(last) {
			s.mu.Unlock()
			continue
		}
		s.last[key] = event.Version
		s.mu.Unlock()

		s.dispatch(event)
	}
}

func (s *Subscription) dispatch(event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("realtime: subscriber for %s %s panicked: %v", event.Kind, event.OrderID, r)
		}
	}()
	s.handler(event)
}
