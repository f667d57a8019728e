// Package subscription fans values out to any number of channel subscribers.
package subscription

import (
	"sync"
)

const defaultBuffer = 10

type Manager[T any] struct {
	closed      bool
	mu          sync.Mutex
	subscribers map[*Subscription[T]]struct{}
}

func NewManager[T any]() *Manager[T] {
	return &Manager[T]{
		subscribers: make(map[*Subscription[T]]struct{}),
	}
}

// Close closes every subscription. Later calls to Subscribe return closed subscriptions.
func (m *Manager[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	subs := make([]*Subscription[T], 0, len(m.subscribers))
	for sub := range m.subscribers {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Publish delivers t to every subscriber without blocking. A subscriber whose buffer is
// full loses its oldest buffered value so that t, the newest, still gets through.
func (m *Manager[T]) Publish(t T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sub := range m.subscribers {
		for {
			select {
			case sub.C <- t:
			default:
				select {
				case <-sub.C:
				default:
				}
				continue
			}
			break
		}
	}
}

func (m *Manager[T]) Subscribe() *Subscription[T] {
	return m.SubscribeBuffered(defaultBuffer)
}

func (m *Manager[T]) SubscribeBuffered(n int) *Subscription[T] {
	if n < 1 {
		n = 1
	}
	sub := &Subscription[T]{
		C:       make(chan T, n),
		manager: m,
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sub.manager = nil
		sub.Close()
		return sub
	}
	m.subscribers[sub] = struct{}{}
	m.mu.Unlock()
	return sub
}

func (m *Manager[T]) remove(s *Subscription[T]) {
	m.mu.Lock()
	delete(m.subscribers, s)
	m.mu.Unlock()
}
