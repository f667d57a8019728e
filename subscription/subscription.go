package subscription

import (
	"sync"
)

// Subscription receives every value published by its Manager until it is closed.
type Subscription[T any] struct {
	C       chan T
	closer  sync.Once
	manager *Manager[T]
}

// Close detaches the subscription from its manager and closes C. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.closer.Do(func() {
		if s.manager != nil {
			s.manager.remove(s)
		}
		close(s.C)
	})
}
