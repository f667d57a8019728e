package debounce

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type options struct {
	buffer int
	clock  clockwork.Clock
	delay  time.Duration
	name   string
}

// Option configures a Holder.
type Option func(*options)

// WithClock replaces the real clock, usually with a clockwork.FakeClock in tests.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithDelay sets the delay used when an observation does not carry one.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithName labels the holder in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithSubscriberBuffer sets how many commits a subscriber can lag behind before the oldest
// is dropped.
func WithSubscriberBuffer(n int) Option {
	return func(o *options) {
		o.buffer = n
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		buffer: 10,
		delay:  DefaultDelay,
		name:   "default",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	return o
}
